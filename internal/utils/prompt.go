package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/phish-filter/internal/core"
)

// ErrNoJSON is returned when a model reply contains no JSON object
var ErrNoJSON = errors.New("no JSON object in model response")

// SystemPrompt is sent as the system message where the provider supports one
const SystemPrompt = "You are a phishing URL risk scorer. Respond only with JSON."

const riskPromptFormat = `You score the phishing risk of a URL from the signals a rule engine detected.
Each signal has a numeric feature value; higher values mean stronger evidence.

Signals:
%s
Respond with a JSON object containing:
- probability: number between 0 and 1 (likelihood that the URL is phishing)

Respond only with the JSON object and nothing else.`

// RiskPrompt renders the feature vector as a prompt for an LLM-backed model
func RiskPrompt(features core.FeatureVector) string {
	var b strings.Builder
	if len(features) == 0 {
		b.WriteString("- none\n")
	}
	for _, f := range features {
		fmt.Fprintf(&b, "- %s: %.4f\n", f.Name, f.Value)
	}
	return fmt.Sprintf(riskPromptFormat, b.String())
}

type probabilityResponse struct {
	Probability *float64 `json:"probability"`
}

// ParseProbability extracts the probability from a model reply. Replies may wrap the JSON
// object in prose or code fences.
func ParseProbability(text string) (float64, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return 0, ErrNoJSON
	}

	var resp probabilityResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return 0, fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	if resp.Probability == nil {
		return 0, fmt.Errorf("model response has no probability field")
	}
	return *resp.Probability, nil
}
