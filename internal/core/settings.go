package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// MLMultiplier scales the model probability before it is added to the weighted sum
const MLMultiplier = 50.0

// Thresholds holds the classification cut-offs
type Thresholds struct {
	PhishingScore float64
}

// Settings is the immutable configuration snapshot used for one analysis.
// Build it with NewSettings; never modify the slices or maps it exposes.
type Settings struct {
	LegitimateDomains []string
	PhishingKeywords  []string
	SuspiciousTLDs    map[string]struct{}
	ShortenerDomains  map[string]struct{}
	Weights           map[Signal]float64
	Thresholds        Thresholds
	CustomPatterns    []string
	UrgencyPhrases    []string
	SimilarityMetric  string
	VerifierTimeout   time.Duration
	MaxRedirects      int
}

// Overrides carries caller-supplied changes to the defaults. Nil fields keep the default;
// Weights are merged key by key.
type Overrides struct {
	LegitimateDomains []string
	PhishingKeywords  []string
	SuspiciousTLDs    []string
	ShortenerDomains  []string
	Weights           map[Signal]float64
	PhishingThreshold *float64
	CustomPatterns    []string
	UrgencyPhrases    []string
	SimilarityMetric  string
	VerifierTimeout   time.Duration
	MaxRedirects      int
}

var (
	defaultLegitimateDomains = []string{
		"google.com", "paypal.com", "apple.com", "microsoft.com", "amazon.com",
		"facebook.com", "netflix.com", "instagram.com", "linkedin.com", "twitter.com",
		"bankofamerica.com", "chase.com", "wellsfargo.com", "dropbox.com", "github.com",
	}

	defaultPhishingKeywords = []string{
		"login", "signin", "verify", "account", "update", "secure", "banking",
		"confirm", "password", "webscr", "ebayisapi", "wallet", "suspend", "unlock",
	}

	defaultSuspiciousTLDs = []string{
		"tk", "ml", "ga", "cf", "gq", "xyz", "top", "club", "work", "zip", "mov",
		"country", "kim", "loan", "men", "click", "link", "review",
	}

	defaultShortenerDomains = []string{
		"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly", "is.gd", "buff.ly",
		"adf.ly", "bit.do", "cutt.ly", "rebrand.ly", "shorturl.at", "tiny.cc",
	}

	defaultUrgencyPhrases = []string{
		"urgent", "immediately", "act now", "verify your account", "suspended",
		"within 24 hours", "limited time", "click here", "confirm your identity",
		"unusual activity", "account will be closed",
	}

	defaultWeights = map[Signal]float64{
		SignalIPAddress:              20,
		SignalShortener:              15,
		SignalTyposquatting:          25,
		SignalHomograph:              30,
		SignalHomographImpersonation: 20,
		SignalSuspiciousTLD:          15,
		SignalPhishingKeyword:        10,
		SignalLongURL:                10,
		SignalNonHTTPS:               10,
		SignalCredentialInURL:        20,
		SignalEncodedChars:           10,
		SignalCustomPattern:          25,
		SignalUrgencyLanguage:        15,
		SignalNoDNS:                  20,
		SignalRedirect:               10,
		SignalGoogleSafeBrowsing:     40,
		SignalVirusTotal:             40,
		SignalPhishTank:              40,
	}
)

const (
	DefaultPhishingThreshold = 50.0
	DefaultSimilarityMetric  = "dice"
	DefaultVerifierTimeout   = 5 * time.Second
	DefaultMaxRedirects      = 5
)

// DefaultWeights returns a copy of the built-in weight table
func DefaultWeights() map[Signal]float64 {
	weights := make(map[Signal]float64, len(defaultWeights))
	for k, v := range defaultWeights {
		weights[k] = v
	}
	return weights
}

// IsKnownSignal reports whether a weight can ever be applied to signal
func IsKnownSignal(signal Signal) bool {
	_, ok := defaultWeights[signal]
	return ok
}

// DefaultSettings returns the built-in configuration
func DefaultSettings() *Settings {
	return NewSettings(Overrides{})
}

// NewSettings merges the overrides onto the defaults and returns a snapshot that shares
// no memory with the caller's values
func NewSettings(o Overrides) *Settings {
	s := &Settings{
		LegitimateDomains: normalizeList(pick(o.LegitimateDomains, defaultLegitimateDomains)),
		PhishingKeywords:  normalizeList(pick(o.PhishingKeywords, defaultPhishingKeywords)),
		SuspiciousTLDs:    toSet(pick(o.SuspiciousTLDs, defaultSuspiciousTLDs), "."),
		ShortenerDomains:  toSet(pick(o.ShortenerDomains, defaultShortenerDomains), ""),
		Weights:           DefaultWeights(),
		Thresholds:        Thresholds{PhishingScore: DefaultPhishingThreshold},
		CustomPatterns:    append([]string(nil), o.CustomPatterns...),
		UrgencyPhrases:    normalizeList(pick(o.UrgencyPhrases, defaultUrgencyPhrases)),
		SimilarityMetric:  DefaultSimilarityMetric,
		VerifierTimeout:   DefaultVerifierTimeout,
		MaxRedirects:      DefaultMaxRedirects,
	}

	for signal, weight := range o.Weights {
		s.Weights[signal] = weight
	}
	if o.PhishingThreshold != nil {
		s.Thresholds.PhishingScore = *o.PhishingThreshold
	}
	if o.SimilarityMetric != "" {
		s.SimilarityMetric = strings.ToLower(o.SimilarityMetric)
	}
	if o.VerifierTimeout > 0 {
		s.VerifierTimeout = o.VerifierTimeout
	}
	if o.MaxRedirects > 0 {
		s.MaxRedirects = o.MaxRedirects
	}

	return s
}

// Weight returns the configured weight for a signal
func (s *Settings) Weight(signal Signal) float64 {
	return s.Weights[signal]
}

// IsSuspiciousTLD reports whether the top-level label is in the suspicious set
func (s *Settings) IsSuspiciousTLD(tld string) bool {
	_, ok := s.SuspiciousTLDs[strings.ToLower(tld)]
	return ok
}

// IsShortener reports whether the registered domain belongs to a URL shortener
func (s *Settings) IsShortener(domain string) bool {
	_, ok := s.ShortenerDomains[strings.ToLower(domain)]
	return ok
}

// Fingerprint returns a stable digest of everything that influences a verdict
func (s *Settings) Fingerprint() string {
	h := sha256.New()
	write := func(label string, values []string) {
		fmt.Fprintf(h, "%s=%s;", label, strings.Join(values, ","))
	}

	write("legit", s.LegitimateDomains)
	write("keywords", s.PhishingKeywords)
	write("tlds", sortedKeys(s.SuspiciousTLDs))
	write("shorteners", sortedKeys(s.ShortenerDomains))
	write("patterns", s.CustomPatterns)
	write("urgency", s.UrgencyPhrases)

	signals := make([]string, 0, len(s.Weights))
	for signal := range s.Weights {
		signals = append(signals, string(signal))
	}
	sort.Strings(signals)
	for _, signal := range signals {
		fmt.Fprintf(h, "w.%s=%g;", signal, s.Weights[Signal(signal)])
	}
	fmt.Fprintf(h, "threshold=%g;metric=%s;hops=%d", s.Thresholds.PhishingScore, s.SimilarityMetric, s.MaxRedirects)

	return hex.EncodeToString(h.Sum(nil))[:16]
}

func pick(override, def []string) []string {
	if override != nil {
		return override
	}
	return def
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func toSet(values []string, trimPrefix string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range normalizeList(values) {
		set[strings.TrimPrefix(v, trimPrefix)] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
