package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/utils"
)

// Model asks an OpenAI chat model for the phishing probability of a feature vector
type Model struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewModel creates a new OpenAI-backed model
func NewModel(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *Model {
	return &Model{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

func (m *Model) Name() string { return "openai:" + m.modelName }

// Predict implements core.Model
func (m *Model) Predict(ctx context.Context, features core.FeatureVector) (float64, error) {
	req := openai.ChatCompletionRequest{
		Model: m.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: utils.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: utils.RiskPrompt(features),
			},
		},
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
		TopP:        m.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("empty response from OpenAI")
	}

	p, err := utils.ParseProbability(resp.Choices[0].Message.Content)
	if err != nil {
		return 0, err
	}

	m.logger.Debug("OpenAI prediction",
		zap.String("model", m.modelName),
		zap.String("completion_id", resp.ID),
		zap.Float64("probability", p))
	return p, nil
}
