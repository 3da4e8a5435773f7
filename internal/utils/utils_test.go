package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/utils"
)

func TestRiskPrompt(t *testing.T) {
	prompt := utils.RiskPrompt(core.FeatureVector{{Name: "typosquatting", Value: 0.78}, {Name: "no_dns", Value: 1}})

	assert.Contains(t, prompt, "- typosquatting: 0.7800\n- no_dns: 1.0000\n")
	assert.Contains(t, prompt, "probability")
	assert.Contains(t, utils.RiskPrompt(nil), "- none")
}

func TestParseProbability(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{`{"probability": 0.82}`, 0.82},
		{"```json\n{\"probability\": 0.1}\n```", 0.1},
		{`Sure! Here is the score: {"probability": 1} Hope this helps.`, 1},
	}
	for _, tt := range tests {
		got, err := utils.ParseProbability(tt.text)
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.want, got)
	}

	_, err := utils.ParseProbability("I cannot help with that")
	assert.ErrorIs(t, err, utils.ErrNoJSON)

	_, err = utils.ParseProbability(`{"score": 0.3}`)
	assert.Error(t, err)

	_, err = utils.ParseProbability(`{"probability": "high"}`)
	assert.Error(t, err)
}

func TestTextProcessor(t *testing.T) {
	tp := utils.NewTextProcessor(zap.NewNop())

	assert.Equal(t, "short", tp.ProcessText("short", 100))

	truncated := tp.TruncateText(strings.Repeat("é", 10), 5)
	assert.True(t, strings.HasPrefix(truncated, "éé"))
	assert.NotContains(t, truncated, "�")
	assert.Contains(t, truncated, "[... Content truncated due to size limits ...]")

	assert.Equal(t, "ab", tp.SanitizeUTF8("a\xffb"))
}
