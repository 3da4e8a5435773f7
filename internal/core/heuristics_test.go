package core_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/core"
)

func evaluate(t *testing.T, rawURL, message string, settings *core.Settings) []core.SignalContribution {
	t.Helper()
	parsed, ok := core.ParseURL(rawURL)
	require.True(t, ok, "url %q should parse", rawURL)
	if settings == nil {
		settings = core.DefaultSettings()
	}
	return core.NewHeuristics(nil, zap.NewNop()).Evaluate(parsed, message, settings)
}

func signals(contributions []core.SignalContribution) []core.Signal {
	out := make([]core.Signal, len(contributions))
	for i, c := range contributions {
		out[i] = c.Signal
	}
	return out
}

func TestHeuristics_Table(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		message string
		want    []core.Signal
	}{
		{"clean https", "https://example.com/about", "", []core.Signal{}},
		{"ipv4 literal", "https://192.168.10.1/", "", []core.Signal{core.SignalIPAddress}},
		{"ipv6 literal", "https://[2001:db8::1]/", "", []core.Signal{core.SignalIPAddress}},
		{"shortener", "https://bit.ly/3xYz", "", []core.Signal{core.SignalShortener}},
		{"typosquat", "https://paypa1.com/", "", []core.Signal{core.SignalTyposquatting}},
		{"legit domain is not a typosquat", "https://www.paypal.com/", "", []core.Signal{}},
		{"homograph", "https://xn--pypal-4ve.com/", "", []core.Signal{core.SignalHomograph, core.SignalHomographImpersonation}},
		{"unicode homograph", "https://p\u0430ypal.com/", "", []core.Signal{core.SignalHomograph, core.SignalHomographImpersonation}},
		{"suspicious tld", "https://example.xyz/", "", []core.Signal{core.SignalSuspiciousTLD}},
		{"deep subdomain", "https://a.b.example.com/", "", []core.Signal{core.SignalSuspiciousTLD}},
		{"single subdomain", "https://www.example.com/", "", []core.Signal{}},
		{"non https", "http://example.com/", "", []core.Signal{core.SignalNonHTTPS}},
		{"credentials", "https://user@example.com/", "", []core.Signal{core.SignalCredentialInURL}},
		{"percent encoding", "https://example.com/%2e%2e/", "", []core.Signal{core.SignalEncodedChars}},
		{"hex escapes", `https://example.com/\x2f`, "", []core.Signal{core.SignalEncodedChars}},
		{"urgency", "https://example.com/", "Act now or lose access", []core.Signal{core.SignalUrgencyLanguage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := signals(evaluate(t, tt.url, tt.message, nil))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeuristics_KeywordsInListOrder(t *testing.T) {
	got := evaluate(t, "https://example.com/verify/login?account=1&login=2", "", nil)

	reasons := make([]string, len(got))
	for i, c := range got {
		reasons[i] = c.Reason
		assert.Equal(t, core.SignalPhishingKeyword, c.Signal)
		assert.Equal(t, 10.0, c.WeightDelta)
	}
	assert.Equal(t, []string{
		`Phishing keyword in URL: "login"`,
		`Phishing keyword in URL: "verify"`,
		`Phishing keyword in URL: "account"`,
	}, reasons)
}

func TestHeuristics_LongURLFeature(t *testing.T) {
	raw := "https://example.com/" + strings.Repeat("a", 130)

	got := evaluate(t, raw, "", nil)

	require.Len(t, got, 1)
	assert.Equal(t, core.SignalLongURL, got[0].Signal)
	require.NotNil(t, got[0].FeatureValue)
	assert.InDelta(t, float64(len(raw))/100, *got[0].FeatureValue, 1e-9)
}

func TestHeuristics_TyposquatFeatureIsSimilarity(t *testing.T) {
	got := evaluate(t, "https://paypa1.com/", "", nil)

	require.Len(t, got, 1)
	require.NotNil(t, got[0].FeatureValue)
	assert.InDelta(t, 14.0/18.0, *got[0].FeatureValue, 1e-9)
	assert.Contains(t, got[0].Reason, `"paypal.com"`)
}

func TestHeuristics_UrgencyHasNoFeature(t *testing.T) {
	got := evaluate(t, "https://example.com/", "Unusual activity detected", nil)

	require.Len(t, got, 1)
	assert.Nil(t, got[0].FeatureValue)
	assert.Equal(t, 15.0, got[0].WeightDelta)
}

func TestHeuristics_CustomPatternsMatchMessage(t *testing.T) {
	settings := core.NewSettings(core.Overrides{CustomPatterns: []string{`(?i)gift\s+card`, "[bad"}})

	got := evaluate(t, "https://example.com/", "Claim your Gift Card today", settings)

	assert.Equal(t, []core.Signal{core.SignalCustomPattern}, signals(got))
}

func TestHeuristics_WeightOverrides(t *testing.T) {
	settings := core.NewSettings(core.Overrides{Weights: map[core.Signal]float64{core.SignalNonHTTPS: 33}})

	got := evaluate(t, "http://example.com/", "", settings)

	require.Len(t, got, 1)
	assert.Equal(t, 33.0, got[0].WeightDelta)
}

func TestHeuristics_InjectedSimilarity(t *testing.T) {
	always := core.SimilarityFunc(func(a, b string) float64 { return 0.95 })
	parsed, ok := core.ParseURL("https://totally-different.org/")
	require.True(t, ok)

	got := core.NewHeuristics(always, zap.NewNop()).Evaluate(parsed, "", core.DefaultSettings())

	assert.Equal(t, []core.Signal{core.SignalTyposquatting}, signals(got))
}
