package core

// Collect merges heuristic contributions and verifier outcomes into one ordered list.
// Heuristics come first in table order, followed by verifier contributions in launch order.
func Collect(heuristics []SignalContribution, outcomes []VerifierOutcome) []SignalContribution {
	merged := make([]SignalContribution, 0, len(heuristics)+len(outcomes))
	merged = append(merged, heuristics...)
	for _, o := range outcomes {
		if o.Kind == OutcomeContributed && o.Contribution != nil {
			merged = append(merged, *o.Contribution)
		}
	}
	return merged
}

// Features builds the feature vector from the contributions that carry a feature value
func Features(contributions []SignalContribution) FeatureVector {
	var fv FeatureVector
	for _, c := range contributions {
		if c.FeatureValue != nil {
			fv = append(fv, Feature{Name: string(c.Signal), Value: *c.FeatureValue})
		}
	}
	return fv
}

// Aggregate sums the weights and the scaled probability, clamps to [0,100] and classifies
func Aggregate(contributions []SignalContribution, probability float64, threshold float64) *AnalysisResult {
	score := 0.0
	reasons := make([]string, 0, len(contributions))
	for _, c := range contributions {
		score += c.WeightDelta
		reasons = append(reasons, c.Reason)
	}
	score += MLMultiplier * ClampProbability(probability)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return &AnalysisResult{
		IsPhishing: score > threshold,
		RiskScore:  score,
		Reasons:    reasons,
	}
}
