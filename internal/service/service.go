package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/metrics"
	"github.com/mikey/phish-filter/internal/ports"
)

// ErrEmptyInput is returned when neither a URL nor a message is supplied
var ErrEmptyInput = errors.New("either url or message is required")

// Report is the outcome of one analysis request
type Report struct {
	RequestID string
	Result    core.AnalysisResult
	Cached    bool
	Duration  time.Duration
}

// Service fronts the detector with request IDs, verdict caching and metrics
type Service struct {
	detector     *core.Detector
	cache        ports.CacheRepository
	metrics      *metrics.Metrics
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
	now          func() time.Time
}

// New creates a new analysis service. cache and m may be nil.
func New(
	detector *core.Detector,
	cache ports.CacheRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
) *Service {
	if m != nil {
		detector.WithOutcomeObserver(m.ObserveOutcome)
	}

	return &Service{
		detector:     detector,
		cache:        cache,
		metrics:      m,
		logger:       logger,
		cacheEnabled: cacheEnabled && cache != nil && cacheTTL > 0,
		cacheTTL:     cacheTTL,
		now:          time.Now,
	}
}

// Metrics returns the service collectors, or nil
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// Analyze classifies the input. The only error is ErrEmptyInput; every other failure is
// reflected in the result.
func (s *Service) Analyze(ctx context.Context, input core.AnalysisInput) (*Report, error) {
	if input.IsEmpty() {
		return nil, ErrEmptyInput
	}

	start := s.now()
	report := &Report{RequestID: uuid.NewString()}
	logger := s.logger.With(zap.String("request_id", report.RequestID))

	key := s.cacheKey(input)
	if key != "" {
		entry, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			report.Result = entry.Result
			report.Cached = true
		case errors.Is(err, ports.ErrCacheMiss):
		default:
			logger.Warn("Failed to read verdict cache", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.ObserveCache(report.Cached)
		}
	}

	if !report.Cached {
		report.Result = *s.detector.Analyze(ctx, input)
		if key != "" {
			s.store(ctx, logger, key, report.Result)
		}
	}

	report.Duration = s.now().Sub(start)
	if s.metrics != nil && !report.Cached {
		s.metrics.ObserveResult(&report.Result, report.Duration.Seconds())
	}

	logger.Info("Analyzed input",
		zap.Bool("is_phishing", report.Result.IsPhishing),
		zap.Float64("risk_score", report.Result.RiskScore),
		zap.Strings("reasons", report.Result.Reasons),
		zap.Bool("cached", report.Cached),
		zap.Duration("duration", report.Duration))

	return report, nil
}

// cacheKey ties a URL verdict to the settings that produced it. Any input carrying a
// message is not cached since the message feeds the urgency and custom-pattern signals.
func (s *Service) cacheKey(input core.AnalysisInput) string {
	if !s.cacheEnabled || input.URL == "" || input.Message != "" {
		return ""
	}
	return input.URL + "|" + s.detector.Settings().Fingerprint()
}

func (s *Service) store(ctx context.Context, logger *zap.Logger, key string, result core.AnalysisResult) {
	now := s.now()
	entry := &ports.CacheEntry{
		Key:       key,
		Result:    result,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cacheTTL),
	}
	if err := s.cache.Set(ctx, entry); err != nil {
		logger.Warn("Failed to cache verdict", zap.Error(err))
	}
}
