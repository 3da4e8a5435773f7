package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/config"
	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/factory"
	"github.com/mikey/phish-filter/internal/logging"
	"github.com/mikey/phish-filter/internal/metrics"
	"github.com/mikey/phish-filter/internal/ports"
	"github.com/mikey/phish-filter/internal/service"
)

// BuildContainer creates and configures a dependency injection container for the server
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register metrics with the Go runtime and process collectors
	if err := container.Provide(func() (*metrics.Metrics, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return metrics.New(reg)
	}); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) (ports.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	if err := provideAnalysis(container); err != nil {
		return nil, err
	}

	// Register front-end
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FilterFactory) (ports.Filter, error) {
		return f.CreateFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideAnalysis registers the model, verifiers, detector and service. It expects the
// config, logger, metrics and cache repository to be provided already.
func provideAnalysis(container *dig.Container) error {
	if err := container.Provide(factory.NewModelFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewVerifierFactory); err != nil {
		return err
	}

	if err := container.Provide(func(f *factory.ModelFactory) (core.Model, error) {
		return f.CreateModel()
	}); err != nil {
		return err
	}

	if err := container.Provide(func(f *factory.VerifierFactory) ([]core.Verifier, error) {
		return f.CreateVerifiers()
	}); err != nil {
		return err
	}

	if err := container.Provide(func(
		cfg *config.Config,
		model core.Model,
		verifiers []core.Verifier,
		logger *zap.Logger,
	) *core.Detector {
		for _, name := range cfg.UnknownWeights() {
			logger.Warn("Ignoring weight for unknown signal", zap.String("signal", name))
		}
		settings := cfg.Settings()
		logger.Info("Loaded detection settings",
			zap.String("fingerprint", settings.Fingerprint()),
			zap.Float64("threshold", settings.Thresholds.PhishingScore))
		return core.NewDetector(core.NewHeuristics(nil, logger), verifiers, model, settings, logger)
	}); err != nil {
		return err
	}

	return container.Provide(func(
		cfg *config.Config,
		detector *core.Detector,
		repo ports.CacheRepository,
		m *metrics.Metrics,
		logger *zap.Logger,
	) (*service.Service, error) {
		cacheCfg, err := cfg.GetCache()
		if err != nil {
			return nil, err
		}
		return service.New(detector, repo, m, logger, cacheCfg.Enabled, cacheCfg.TTL), nil
	})
}
