package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/adapters/bedrock"
	"github.com/mikey/phish-filter/internal/adapters/gemini"
	"github.com/mikey/phish-filter/internal/adapters/model"
	"github.com/mikey/phish-filter/internal/adapters/openai"
	"github.com/mikey/phish-filter/internal/config"
	"github.com/mikey/phish-filter/internal/core"
)

// ModelFactory creates the probability model selected by model.provider
type ModelFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewModelFactory creates a new model factory
func NewModelFactory(cfg *config.Config, logger *zap.Logger) *ModelFactory {
	return &ModelFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateModel creates the configured model. The choice is made once, at startup.
func (f *ModelFactory) CreateModel() (core.Model, error) {
	modelCfg := f.cfg.GetModel()

	var m core.Model
	switch modelCfg.Provider {
	case "", "fallback":
		return core.NewFallbackModel(), nil
	case "logistic":
		if modelCfg.LogisticPath == "" {
			return nil, fmt.Errorf("model.logistic_path is required for the logistic model")
		}
		logistic, err := model.LoadLogistic(modelCfg.LogisticPath, f.logger)
		if err != nil {
			return nil, err
		}
		m = logistic
	case "openai":
		openaiModel, err := openai.NewFactory(f.cfg, f.logger).CreateModel()
		if err != nil {
			return nil, err
		}
		m = openaiModel
	case "gemini":
		geminiModel, err := gemini.NewFactory(f.cfg, f.logger).CreateModel()
		if err != nil {
			return nil, err
		}
		m = geminiModel
	case "bedrock":
		bedrockModel, err := bedrock.NewFactory(f.cfg, f.logger).CreateModel()
		if err != nil {
			return nil, err
		}
		m = bedrockModel
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", modelCfg.Provider)
	}

	f.logger.Info("Using model", zap.String("model", m.Name()), zap.Duration("timeout", modelCfg.Timeout))
	return model.WithTimeout(m, modelCfg.Timeout), nil
}
