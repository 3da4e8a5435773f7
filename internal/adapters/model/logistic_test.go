package model_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/adapters/model"
	"github.com/mikey/phish-filter/internal/core"
)

func TestLogistic_Predict(t *testing.T) {
	m := model.NewLogistic(model.LogisticParams{
		Bias:          -2,
		DefaultWeight: 0.5,
		Weights:       map[string]float64{"typosquatting": 3},
	}, zap.NewNop())

	p, err := m.Predict(context.Background(), core.FeatureVector{
		{Name: "typosquatting", Value: 1},
		{Name: "non_https", Value: 2},
	})

	require.NoError(t, err)
	// -2 + 3*1 + 0.5*2 = 2
	assert.InDelta(t, core.Sigmoid(2), p, 1e-12)

	empty, err := m.Predict(context.Background(), nil)
	require.NoError(t, err)
	assert.InDelta(t, core.Sigmoid(-2), empty, 1e-12)
}

func TestLogistic_NonFinite(t *testing.T) {
	m := model.NewLogistic(model.LogisticParams{Weights: map[string]float64{"x": math.Inf(1)}}, zap.NewNop())

	_, err := m.Predict(context.Background(), core.FeatureVector{{Name: "x", Value: 0}})
	assert.Error(t, err)
}

func TestLoadLogistic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bias: -1.5
default_weight: 0.25
weights:
  homograph: 2.0
  no_dns: 1.0
`), 0o600))

	m, err := model.LoadLogistic(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "logistic", m.Name())

	p, err := m.Predict(context.Background(), core.FeatureVector{{Name: "homograph", Value: 1}})
	require.NoError(t, err)
	assert.InDelta(t, core.Sigmoid(0.5), p, 1e-12)
}

func TestLoadLogistic_Errors(t *testing.T) {
	_, err := model.LoadLogistic(filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights: [1, 2"), 0o600))
	_, err = model.LoadLogistic(path, zap.NewNop())
	assert.Error(t, err)
}
