package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/phish-filter/internal/core"
)

func TestObserve(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	m.ObserveResult(&core.AnalysisResult{IsPhishing: true, RiskScore: 80}, 0.2)
	m.ObserveResult(&core.AnalysisResult{RiskScore: 20}, 0.1)
	m.ObserveResult(&core.AnalysisResult{RiskScore: 30}, 0.1)
	m.ObserveOutcome(core.VerifierOutcome{Verifier: "dns", Kind: core.OutcomeAbsorbed})
	m.ObserveCache(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("phishing")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues("legitimate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifiers.WithLabelValues("dns", "absorbed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues("hit")))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	m.ObserveCache(false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `phish_filter_cache_lookups_total{result="miss"} 1`)
}
