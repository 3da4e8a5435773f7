package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/utils"
)

// Model asks a Gemini model for the phishing probability of a feature vector
type Model struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *zap.Logger
}

// NewModel creates a Gemini-backed model
func NewModel(
	ctx context.Context,
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*Model, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(utils.SystemPrompt))

	return &Model{
		client:    client,
		model:     model,
		modelName: modelName,
		logger:    logger,
	}, nil
}

func (m *Model) Name() string { return "gemini:" + m.modelName }

// Close closes the Gemini client
func (m *Model) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

// Predict implements core.Model
func (m *Model) Predict(ctx context.Context, features core.FeatureVector) (float64, error) {
	resp, err := m.model.GenerateContent(ctx, genai.Text(utils.RiskPrompt(features)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return 0, fmt.Errorf("empty response from Gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	p, err := utils.ParseProbability(text.String())
	if err != nil {
		return 0, err
	}

	m.logger.Debug("Gemini prediction",
		zap.String("model", m.modelName),
		zap.Float64("probability", p))
	return p, nil
}
