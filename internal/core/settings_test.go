package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mikey/phish-filter/internal/core"
)

func TestSettings_Defaults(t *testing.T) {
	s := core.DefaultSettings()

	assert.Equal(t, 50.0, s.Thresholds.PhishingScore)
	assert.Equal(t, "dice", s.SimilarityMetric)
	assert.Equal(t, 5*time.Second, s.VerifierTimeout)
	assert.Equal(t, 5, s.MaxRedirects)
	assert.Equal(t, 25.0, s.Weight(core.SignalTyposquatting))
	assert.True(t, s.IsSuspiciousTLD("TK"))
	assert.True(t, s.IsShortener("bit.ly"))
	assert.False(t, s.IsShortener("example.com"))
}

func TestSettings_MergeWeightsPerKey(t *testing.T) {
	s := core.NewSettings(core.Overrides{
		Weights:        map[core.Signal]float64{core.SignalShortener: 3},
		SuspiciousTLDs: []string{".Zip", " "},
	})

	assert.Equal(t, 3.0, s.Weight(core.SignalShortener))
	assert.Equal(t, 20.0, s.Weight(core.SignalIPAddress))
	assert.True(t, s.IsSuspiciousTLD("zip"))
	assert.False(t, s.IsSuspiciousTLD("tk"))
	assert.Len(t, s.SuspiciousTLDs, 1)
}

func TestSettings_DefaultWeightsIsACopy(t *testing.T) {
	w := core.DefaultWeights()
	w[core.SignalRedirect] = 999

	assert.Equal(t, 10.0, core.DefaultSettings().Weight(core.SignalRedirect))
}

func TestSettings_IsKnownSignal(t *testing.T) {
	for signal := range core.DefaultWeights() {
		assert.True(t, core.IsKnownSignal(signal), string(signal))
	}
	assert.False(t, core.IsKnownSignal("ip"))
}

func TestSettings_Fingerprint(t *testing.T) {
	threshold := 70.0
	a := core.DefaultSettings().Fingerprint()

	assert.Len(t, a, 16)
	assert.Equal(t, a, core.DefaultSettings().Fingerprint())
	assert.NotEqual(t, a, core.NewSettings(core.Overrides{PhishingThreshold: &threshold}).Fingerprint())
	assert.NotEqual(t, a, core.NewSettings(core.Overrides{CustomPatterns: []string{"x"}}).Fingerprint())
	assert.NotEqual(t, a, core.NewSettings(core.Overrides{
		Weights: map[core.Signal]float64{core.SignalNoDNS: 21},
	}).Fingerprint())
}
