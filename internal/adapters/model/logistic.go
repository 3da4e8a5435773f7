package model

import (
	"context"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mikey/phish-filter/internal/core"
)

// LogisticParams is the on-disk form of a trained logistic regression
type LogisticParams struct {
	Bias          float64            `yaml:"bias"`
	DefaultWeight float64            `yaml:"default_weight"`
	Weights       map[string]float64 `yaml:"weights"`
}

// Logistic scores feature vectors with a fixed set of logistic regression coefficients
type Logistic struct {
	params LogisticParams
	logger *zap.Logger
}

// NewLogistic creates a model from in-memory parameters
func NewLogistic(params LogisticParams, logger *zap.Logger) *Logistic {
	weights := make(map[string]float64, len(params.Weights))
	for k, v := range params.Weights {
		weights[k] = v
	}
	params.Weights = weights

	return &Logistic{
		params: params,
		logger: logger,
	}
}

// LoadLogistic reads the coefficients from a YAML file
func LoadLogistic(path string, logger *zap.Logger) (*Logistic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var params LogisticParams
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}

	logger.Info("Loaded logistic model",
		zap.String("path", path),
		zap.Int("coefficients", len(params.Weights)))
	return NewLogistic(params, logger), nil
}

func (m *Logistic) Name() string { return "logistic" }

// Predict returns sigmoid(bias + sum of weight*value). Features without a coefficient use
// the default weight.
func (m *Logistic) Predict(_ context.Context, features core.FeatureVector) (float64, error) {
	z := m.params.Bias
	for _, f := range features {
		w, ok := m.params.Weights[f.Name]
		if !ok {
			w = m.params.DefaultWeight
		}
		z += w * f.Value
	}
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, fmt.Errorf("logistic model produced a non-finite logit")
	}
	return core.Sigmoid(z), nil
}
