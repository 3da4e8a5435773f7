package factory

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/adapters/filter"
	"github.com/mikey/phish-filter/internal/config"
	"github.com/mikey/phish-filter/internal/ports"
	"github.com/mikey/phish-filter/internal/service"
	"github.com/mikey/phish-filter/internal/utils"
	"github.com/mikey/phish-filter/internal/whitelist"
)

// FilterFactory creates the long-running front-end selected by server.filter_type
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *service.Service
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, svc *service.Service) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: svc,
	}
}

// CreateFilter creates a front-end based on the configuration
func (f *FilterFactory) CreateFilter() (ports.Filter, error) {
	filterType := f.cfg.GetServer().FilterType

	switch filterType {
	case "http":
		var metricsHandler http.Handler
		if m := f.service.Metrics(); m != nil {
			metricsHandler = m.Handler()
		}
		return filter.NewHTTPFilter(f.service, metricsHandler, f.logger, f.cfg.GetServer()), nil
	case "smtp", "postfix":
		smtpCfg := f.cfg.GetSMTP()
		return filter.NewPostfixFilter(
			f.service,
			utils.NewTextProcessor(f.logger),
			whitelist.NewChecker(smtpCfg.WhitelistedDomains, f.logger),
			f.logger,
			smtpCfg,
		), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
