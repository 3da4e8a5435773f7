package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mikey/phish-filter/internal/core"
)

type blockingModel struct{}

func (blockingModel) Name() string { return "blocking" }

func (blockingModel) Predict(ctx context.Context, _ core.FeatureVector) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestWithTimeoutCancelsSlowModels(t *testing.T) {
	m := WithTimeout(blockingModel{}, 10*time.Millisecond)

	_, err := m.Predict(context.Background(), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "blocking", m.Name())
}

func TestWithTimeoutDisabled(t *testing.T) {
	inner := NewLogistic(LogisticParams{}, nil)
	assert.Same(t, inner, WithTimeout(inner, 0))
}
