package bedrock_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/adapters/bedrock"
	"github.com/mikey/phish-filter/internal/core"
)

type fakeRuntime struct {
	body    []byte
	err     error
	request map[string]interface{}
}

func (f *fakeRuntime) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	if err := json.Unmarshal(in.Body, &f.request); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

var features = core.FeatureVector{{Name: "homograph", Value: 1}}

func TestModel_Claude(t *testing.T) {
	rt := &fakeRuntime{body: []byte(`{"completion":" {\"probability\": 0.77}"}`)}
	m := bedrock.NewModel(rt, "anthropic.claude-v2", 100, 0, 0.9, zap.NewNop())

	p, err := m.Predict(context.Background(), features)

	require.NoError(t, err)
	assert.Equal(t, 0.77, p)
	assert.Contains(t, rt.request["prompt"], "Human:")
	assert.Contains(t, rt.request["prompt"], "- homograph: 1.0000")
	assert.Equal(t, "bedrock:anthropic.claude-v2", m.Name())
}

func TestModel_Titan(t *testing.T) {
	rt := &fakeRuntime{body: []byte(`{"results":[{"outputText":"{\"probability\":0.2}"}]}`)}
	m := bedrock.NewModel(rt, "amazon.titan-text-express-v1", 100, 0, 0.9, zap.NewNop())

	p, err := m.Predict(context.Background(), features)

	require.NoError(t, err)
	assert.Equal(t, 0.2, p)
	assert.Contains(t, rt.request, "textGenerationConfig")
}

func TestModel_GenericAndErrors(t *testing.T) {
	rt := &fakeRuntime{body: []byte(`{"output":"{\"probability\":0.4}"}`)}
	p, err := bedrock.NewModel(rt, "meta.llama", 100, 0, 0.9, zap.NewNop()).Predict(context.Background(), features)
	require.NoError(t, err)
	assert.Equal(t, 0.4, p)

	failing := &fakeRuntime{err: errors.New("throttled")}
	_, err = bedrock.NewModel(failing, "anthropic.claude-v2", 100, 0, 0.9, zap.NewNop()).Predict(context.Background(), features)
	assert.ErrorContains(t, err, "throttled")

	empty := &fakeRuntime{body: []byte(`{"results":[]}`)}
	_, err = bedrock.NewModel(empty, "amazon.titan-text-lite-v1", 100, 0, 0.9, zap.NewNop()).Predict(context.Background(), features)
	assert.Error(t, err)
}
