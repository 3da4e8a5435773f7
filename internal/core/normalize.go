package core

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	ReasonNoURL      = "No URL found"
	ReasonInvalidURL = "Invalid URL format"
)

var urlTokenPattern = regexp.MustCompile(`(?i)https?://[^\s<>"'` + "`" + `]+`)

// ExtractURL returns the first HTTP or HTTPS URL token found in a message
func ExtractURL(message string) (string, bool) {
	token := urlTokenPattern.FindString(message)
	if token == "" {
		return "", false
	}
	// Sentence punctuation directly after a link is not part of it
	token = strings.TrimRight(token, ".,;:!?)]}")
	return token, true
}

// ParseURL parses a candidate URL. Inputs without a scheme or host are rejected.
func ParseURL(raw string) (*ParsedURL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return nil, false
	}

	return &ParsedURL{
		Scheme:   strings.ToLower(u.Scheme),
		Hostname: strings.ToLower(u.Hostname()),
		Path:     u.Path,
		Query:    u.RawQuery,
		Raw:      raw,
	}, true
}

// Normalize derives the candidate URL from an input. When the input cannot proceed through
// the pipeline, the terminal result to return is reported instead.
func Normalize(in AnalysisInput) (*ParsedURL, *AnalysisResult) {
	candidate := in.URL
	if candidate == "" {
		found, ok := ExtractURL(in.Message)
		if !ok {
			return nil, NoURLResult()
		}
		candidate = found
	}

	parsed, ok := ParseURL(candidate)
	if !ok {
		return nil, InvalidURLResult()
	}
	return parsed, nil
}

// NoURLResult is returned when a message carries no link
func NoURLResult() *AnalysisResult {
	return &AnalysisResult{IsPhishing: false, RiskScore: 0, Reasons: []string{ReasonNoURL}}
}

// InvalidURLResult is returned when the candidate URL does not parse
func InvalidURLResult() *AnalysisResult {
	return &AnalysisResult{IsPhishing: true, RiskScore: 100, Reasons: []string{ReasonInvalidURL}}
}
