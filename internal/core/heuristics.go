package core

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const (
	typosquatThreshold = 0.7
	homographThreshold = 0.8
	longURLLength      = 100
)

var encodedBytePattern = regexp.MustCompile(`%[0-9A-Fa-f]{2}|\\x[0-9A-Fa-f]{2}`)

// evaluation is the input shared by every heuristic evaluator
type evaluation struct {
	url        *ParsedURL
	host       hostParts
	message    string
	settings   *Settings
	similarity Similarity
}

func (e *evaluation) contribution(signal Signal, reason string, feature *float64) SignalContribution {
	return SignalContribution{
		Signal:       signal,
		WeightDelta:  e.settings.Weight(signal),
		Reason:       reason,
		FeatureValue: feature,
	}
}

func feature(v float64) *float64 {
	return &v
}

// Heuristics runs the fixed table of synchronous URL evaluators
type Heuristics struct {
	similarity Similarity
	logger     *zap.Logger
}

// NewHeuristics creates the evaluator table. A nil similarity means the metric named in
// the settings of each analysis is used.
func NewHeuristics(similarity Similarity, logger *zap.Logger) *Heuristics {
	return &Heuristics{
		similarity: similarity,
		logger:     logger,
	}
}

// Evaluate runs every evaluator in table order and returns the contributions that fired
func (h *Heuristics) Evaluate(parsed *ParsedURL, message string, settings *Settings) []SignalContribution {
	e := &evaluation{
		url:        parsed,
		host:       splitHost(parsed.Hostname),
		message:    message,
		settings:   settings,
		similarity: h.similarityFor(settings),
	}

	var out []SignalContribution
	out = append(out, h.ipLiteral(e)...)
	out = append(out, h.shortener(e)...)
	out = append(out, h.typosquatting(e)...)
	out = append(out, h.homograph(e)...)
	out = append(out, h.suspiciousDomain(e)...)
	out = append(out, h.keywords(e)...)
	out = append(out, h.longURL(e)...)
	out = append(out, h.nonHTTPS(e)...)
	out = append(out, h.credentials(e)...)
	out = append(out, h.encoded(e)...)
	out = append(out, h.customPatterns(e)...)
	out = append(out, h.urgency(e)...)
	return out
}

func (h *Heuristics) similarityFor(settings *Settings) Similarity {
	if h.similarity != nil {
		return h.similarity
	}
	sim, err := NewSimilarity(settings.SimilarityMetric)
	if err != nil {
		h.logger.Warn("Unknown similarity metric, using dice",
			zap.String("metric", settings.SimilarityMetric))
		return SimilarityFunc(diceCoefficient)
	}
	return sim
}

func (h *Heuristics) ipLiteral(e *evaluation) []SignalContribution {
	if !isIPLiteral(e.url.Hostname) {
		return nil
	}
	return []SignalContribution{e.contribution(SignalIPAddress,
		"URL uses an IP address instead of a domain name", feature(1))}
}

func (h *Heuristics) shortener(e *evaluation) []SignalContribution {
	if !e.settings.IsShortener(e.host.registered) {
		return nil
	}
	return []SignalContribution{e.contribution(SignalShortener,
		fmt.Sprintf("URL uses a link shortener (%s)", e.host.registered), feature(1))}
}

func (h *Heuristics) typosquatting(e *evaluation) []SignalContribution {
	domain := e.host.registered
	for _, legit := range e.settings.LegitimateDomains {
		if domain == legit {
			return nil
		}
	}

	for _, legit := range e.settings.LegitimateDomains {
		score := e.similarity.Compare(domain, legit)
		if score > typosquatThreshold {
			return []SignalContribution{e.contribution(SignalTyposquatting,
				fmt.Sprintf("Domain %q closely resembles %q (similarity %.2f)", domain, legit, score),
				feature(score))}
		}
	}
	return nil
}

func (h *Heuristics) homograph(e *evaluation) []SignalContribution {
	decoded := decodeHost(e.host.ascii)
	if decoded == e.host.ascii {
		return nil
	}

	out := []SignalContribution{e.contribution(SignalHomograph,
		fmt.Sprintf("Internationalized domain name may be a homograph attack (%s)", decoded), feature(1))}

	folded := skeleton(decodeHost(e.host.registered))
	for _, legit := range e.settings.LegitimateDomains {
		score := e.similarity.Compare(folded, legit)
		if score > homographThreshold {
			out = append(out, e.contribution(SignalHomographImpersonation,
				fmt.Sprintf("Internationalized domain imitates %q (similarity %.2f)", legit, score),
				feature(score)))
			break
		}
	}
	return out
}

func (h *Heuristics) suspiciousDomain(e *evaluation) []SignalContribution {
	switch {
	case e.settings.IsSuspiciousTLD(e.host.tld):
		return []SignalContribution{e.contribution(SignalSuspiciousTLD,
			fmt.Sprintf("Suspicious top-level domain (.%s)", e.host.tld), feature(1))}
	case labelCount(e.host.subdomain) > 1:
		return []SignalContribution{e.contribution(SignalSuspiciousTLD,
			fmt.Sprintf("Excessive subdomains (%s)", e.host.subdomain), feature(1))}
	default:
		return nil
	}
}

func (h *Heuristics) keywords(e *evaluation) []SignalContribution {
	haystack := strings.ToLower(e.url.Path + "?" + e.url.Query)
	seen := make(map[string]bool, len(e.settings.PhishingKeywords))

	var out []SignalContribution
	for _, keyword := range e.settings.PhishingKeywords {
		if seen[keyword] || !strings.Contains(haystack, keyword) {
			continue
		}
		seen[keyword] = true
		out = append(out, e.contribution(SignalPhishingKeyword,
			fmt.Sprintf("Phishing keyword in URL: %q", keyword), feature(1)))
	}
	return out
}

func (h *Heuristics) longURL(e *evaluation) []SignalContribution {
	length := len(e.url.Raw)
	if length <= longURLLength {
		return nil
	}
	return []SignalContribution{e.contribution(SignalLongURL,
		fmt.Sprintf("Unusually long URL (%d characters)", length), feature(float64(length)/100))}
}

func (h *Heuristics) nonHTTPS(e *evaluation) []SignalContribution {
	if e.url.Scheme == "https" {
		return nil
	}
	return []SignalContribution{e.contribution(SignalNonHTTPS,
		"URL does not use HTTPS", feature(1))}
}

func (h *Heuristics) credentials(e *evaluation) []SignalContribution {
	if !strings.Contains(e.url.Raw, "@") {
		return nil
	}
	return []SignalContribution{e.contribution(SignalCredentialInURL,
		"URL contains an @ symbol, which can hide the real destination", feature(1))}
}

func (h *Heuristics) encoded(e *evaluation) []SignalContribution {
	if !encodedBytePattern.MatchString(e.url.Raw) {
		return nil
	}
	return []SignalContribution{e.contribution(SignalEncodedChars,
		"URL contains encoded characters that may obfuscate its target", feature(1))}
}

func (h *Heuristics) customPatterns(e *evaluation) []SignalContribution {
	var out []SignalContribution
	for _, pattern := range e.settings.CustomPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			h.logger.Warn("Skipping malformed custom pattern",
				zap.String("pattern", pattern),
				zap.Error(err))
			continue
		}
		if re.MatchString(e.url.Raw) || (e.message != "" && re.MatchString(e.message)) {
			out = append(out, e.contribution(SignalCustomPattern,
				fmt.Sprintf("Matched custom pattern: %s", pattern), feature(1)))
		}
	}
	return out
}

func (h *Heuristics) urgency(e *evaluation) []SignalContribution {
	if e.message == "" {
		return nil
	}
	text := strings.ToLower(e.message)
	for _, phrase := range e.settings.UrgencyPhrases {
		if strings.Contains(text, phrase) {
			return []SignalContribution{e.contribution(SignalUrgencyLanguage,
				fmt.Sprintf("Message uses urgency language (%q)", phrase), nil)}
		}
	}
	return nil
}
