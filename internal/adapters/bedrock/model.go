package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/utils"
)

// InvokeAPI is the subset of the Bedrock runtime client the model needs
type InvokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Model asks an Amazon Bedrock foundation model for the phishing probability
type Model struct {
	client      InvokeAPI
	modelID     string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewModel creates a Bedrock-backed model
func NewModel(
	client InvokeAPI,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *Model {
	return &Model{
		client:      client,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

func (m *Model) Name() string { return "bedrock:" + m.modelID }

// Predict implements core.Model
func (m *Model) Predict(ctx context.Context, features core.FeatureVector) (float64, error) {
	payload, err := m.requestBody(utils.RiskPrompt(features))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := m.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(m.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	text, err := m.responseText(resp.Body)
	if err != nil {
		return 0, err
	}

	p, err := utils.ParseProbability(text)
	if err != nil {
		return 0, err
	}

	m.logger.Debug("Bedrock prediction",
		zap.String("model", m.modelID),
		zap.Float64("probability", p))
	return p, nil
}

func (m *Model) requestBody(prompt string) ([]byte, error) {
	switch {
	case m.isAnthropicModel():
		return json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n%s\n\nAssistant:", utils.SystemPrompt, prompt),
			"max_tokens_to_sample": m.maxTokens,
			"temperature":          m.temperature,
			"top_p":                m.topP,
		})
	case m.isAmazonTitanModel():
		return json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": m.maxTokens,
				"temperature":   m.temperature,
				"topP":          m.topP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  m.maxTokens,
			"temperature": m.temperature,
			"top_p":       m.topP,
		})
	}
}

func (m *Model) responseText(body []byte) (string, error) {
	switch {
	case m.isAnthropicModel():
		var resp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return resp.Completion, nil
	case m.isAmazonTitanModel():
		var resp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(resp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return resp.Results[0].OutputText, nil
	default:
		var resp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return string(body), nil
		}
		for _, candidate := range []string{resp.Output, resp.Text, resp.Response} {
			if candidate != "" {
				return candidate, nil
			}
		}
		return string(body), nil
	}
}

func (m *Model) isAnthropicModel() bool {
	return strings.HasPrefix(m.modelID, "anthropic.claude")
}

func (m *Model) isAmazonTitanModel() bool {
	return strings.HasPrefix(m.modelID, "amazon.titan")
}
