package model

import (
	"context"
	"time"

	"github.com/mikey/phish-filter/internal/core"
)

// Timeout bounds every prediction of the wrapped model
type Timeout struct {
	core.Model
	timeout time.Duration
}

// WithTimeout wraps m so each Predict call is cancelled after d. A non-positive d returns m.
func WithTimeout(m core.Model, d time.Duration) core.Model {
	if d <= 0 {
		return m
	}
	return &Timeout{Model: m, timeout: d}
}

func (t *Timeout) Predict(ctx context.Context, features core.FeatureVector) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Model.Predict(ctx, features)
}

// Close releases the wrapped model's resources, if it holds any
func (t *Timeout) Close() error {
	if closer, ok := t.Model.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
