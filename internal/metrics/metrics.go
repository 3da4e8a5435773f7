package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mikey/phish-filter/internal/core"
)

const namespace = "phish_filter"

// Metrics holds the collectors recorded by the analysis service
type Metrics struct {
	analyses   *prometheus.CounterVec
	verifiers  *prometheus.CounterVec
	cache      *prometheus.CounterVec
	riskScores prometheus.Histogram
	duration   prometheus.Histogram
	gatherer   prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil registry gets a private one.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyses completed, by verdict.",
		}, []string{"verdict"}),
		verifiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifier_outcomes_total",
			Help:      "Settled verifier outcomes, by verifier and kind.",
		}, []string{"verifier", "outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Verdict cache lookups, by result.",
		}, []string{"result"}),
		riskScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Distribution of computed risk scores.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent analyzing a single input.",
			Buckets:   prometheus.DefBuckets,
		}),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{m.analyses, m.verifiers, m.cache, m.riskScores, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveResult records a finished analysis
func (m *Metrics) ObserveResult(result *core.AnalysisResult, seconds float64) {
	verdict := "legitimate"
	if result.IsPhishing {
		verdict = "phishing"
	}
	m.analyses.WithLabelValues(verdict).Inc()
	m.riskScores.Observe(result.RiskScore)
	m.duration.Observe(seconds)
}

// ObserveOutcome records a verifier outcome. It satisfies core.OutcomeObserver.
func (m *Metrics) ObserveOutcome(outcome core.VerifierOutcome) {
	m.verifiers.WithLabelValues(outcome.Verifier, outcome.Kind.String()).Inc()
}

// ObserveCache records a cache lookup
func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
