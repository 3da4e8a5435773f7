package core

// AnalysisInput is a request to classify either a URL or a free-text message
type AnalysisInput struct {
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsEmpty reports whether neither a URL nor a message was supplied
func (in AnalysisInput) IsEmpty() bool {
	return in.URL == "" && in.Message == ""
}

// ParsedURL holds the components of a candidate URL that parsed successfully
type ParsedURL struct {
	Scheme   string
	Hostname string
	Path     string
	Query    string
	Raw      string
}

// Signal identifies an evaluator or verifier and keys the weight table
type Signal string

const (
	SignalIPAddress              Signal = "ip_address"
	SignalShortener              Signal = "shortener"
	SignalTyposquatting          Signal = "typosquatting"
	SignalHomograph              Signal = "homograph"
	SignalHomographImpersonation Signal = "homograph_impersonation"
	SignalSuspiciousTLD          Signal = "suspicious_tld"
	SignalPhishingKeyword        Signal = "phishing_keyword"
	SignalLongURL                Signal = "long_url"
	SignalNonHTTPS               Signal = "non_https"
	SignalCredentialInURL        Signal = "credential_in_url"
	SignalEncodedChars           Signal = "encoded_chars"
	SignalCustomPattern          Signal = "custom_pattern"
	SignalUrgencyLanguage        Signal = "urgency_language"
	SignalNoDNS                  Signal = "no_dns"
	SignalRedirect               Signal = "redirect"
	SignalGoogleSafeBrowsing     Signal = "google_safe_browsing"
	SignalVirusTotal             Signal = "virustotal"
	SignalPhishTank              Signal = "phishtank"
)

// SignalContribution is the immutable output of a single fired evaluator or verifier.
// FeatureValue is nil when the signal only contributes weight.
type SignalContribution struct {
	Signal       Signal
	WeightDelta  float64
	Reason       string
	FeatureValue *float64
}

// Feature is one named entry of a FeatureVector
type Feature struct {
	Name  string
	Value float64
}

// FeatureVector is the append-only ordered list of numeric signals passed to the model
type FeatureVector []Feature

// Values returns the raw feature values in order
func (fv FeatureVector) Values() []float64 {
	values := make([]float64, len(fv))
	for i, f := range fv {
		values[i] = f.Value
	}
	return values
}

// AnalysisResult is the verdict returned for every analysis
type AnalysisResult struct {
	IsPhishing bool     `json:"isPhishing"`
	RiskScore  float64  `json:"riskScore"`
	Reasons    []string `json:"reasons"`
}

// ThreatVerdict is the minimal response shape of a threat-intel provider
type ThreatVerdict struct {
	Flagged bool
	Detail  string
}
