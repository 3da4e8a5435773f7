package core

import (
	"context"
	"math"
)

// FallbackModel is the deterministic model used when no trained model is configured:
// the logistic transform of the mean feature value
type FallbackModel struct{}

// NewFallbackModel creates the built-in model
func NewFallbackModel() *FallbackModel {
	return &FallbackModel{}
}

func (m *FallbackModel) Name() string { return "fallback" }

// Predict never fails
func (m *FallbackModel) Predict(_ context.Context, features FeatureVector) (float64, error) {
	return Sigmoid(Mean(features.Values())), nil
}

// Mean returns the arithmetic mean, defined as 0 for no values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Sigmoid is the logistic function
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// ClampProbability forces a model output into [0,1]; NaN counts as 0.5
func ClampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 0.5
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
