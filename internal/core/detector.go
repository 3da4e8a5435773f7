package core

import (
	"context"

	"go.uber.org/zap"
)

// Detector is the risk-scoring orchestrator. It normalizes the input, runs the heuristic
// evaluators and the asynchronous verifiers, asks the model for a probability and
// aggregates everything into a verdict.
type Detector struct {
	heuristics *Heuristics
	verifiers  []Verifier
	model      Model
	fallback   *FallbackModel
	settings   *Settings
	observer   OutcomeObserver
	logger     *zap.Logger
}

// OutcomeObserver is notified of every settled verifier outcome
type OutcomeObserver func(VerifierOutcome)

// NewDetector creates a detector. A nil model selects the deterministic fallback and nil
// settings select the defaults.
func NewDetector(
	heuristics *Heuristics,
	verifiers []Verifier,
	model Model,
	settings *Settings,
	logger *zap.Logger,
) *Detector {
	fallback := NewFallbackModel()
	if model == nil {
		model = fallback
	}
	if settings == nil {
		settings = DefaultSettings()
	}

	return &Detector{
		heuristics: heuristics,
		verifiers:  append([]Verifier(nil), verifiers...),
		model:      model,
		fallback:   fallback,
		settings:   settings,
		logger:     logger,
	}
}

// WithOutcomeObserver registers a callback for verifier outcomes. It must be called before
// the detector is shared.
func (d *Detector) WithOutcomeObserver(observer OutcomeObserver) *Detector {
	d.observer = observer
	return d
}

// Settings returns the snapshot used when the caller supplies none
func (d *Detector) Settings() *Settings {
	return d.settings
}

// Analyze classifies the input using the detector's configured settings
func (d *Detector) Analyze(ctx context.Context, in AnalysisInput) *AnalysisResult {
	return d.AnalyzeWith(ctx, in, d.settings)
}

// AnalyzeWith classifies the input using the given settings snapshot. It always returns a
// well-formed result.
func (d *Detector) AnalyzeWith(ctx context.Context, in AnalysisInput, settings *Settings) *AnalysisResult {
	parsed, terminal := Normalize(in)
	if terminal != nil {
		d.logger.Debug("Analysis short-circuited",
			zap.String("reason", terminal.Reasons[0]))
		return terminal
	}

	heuristics := d.heuristics.Evaluate(parsed, in.Message, settings)
	outcomes := RunVerifiers(ctx, d.verifiers, parsed, settings)
	for _, o := range outcomes {
		if d.observer != nil {
			d.observer(o)
		}
		if o.Err != nil {
			d.logger.Debug("Verifier failure absorbed",
				zap.String("verifier", o.Verifier),
				zap.String("outcome", o.Kind.String()),
				zap.Error(o.Err))
		}
	}

	contributions := Collect(heuristics, outcomes)
	probability := d.predict(ctx, Features(contributions))
	result := Aggregate(contributions, probability, settings.Thresholds.PhishingScore)

	d.logger.Debug("Analysis complete",
		zap.String("host", parsed.Hostname),
		zap.Int("signals", len(contributions)),
		zap.Float64("ml_probability", probability),
		zap.Float64("risk_score", result.RiskScore),
		zap.Bool("is_phishing", result.IsPhishing))

	return result
}

func (d *Detector) predict(ctx context.Context, features FeatureVector) float64 {
	p, err := d.model.Predict(ctx, features)
	if err != nil {
		d.logger.Warn("Model prediction failed, using fallback model",
			zap.String("model", d.model.Name()),
			zap.Error(err))
		p, _ = d.fallback.Predict(ctx, features)
	}
	return ClampProbability(p)
}
