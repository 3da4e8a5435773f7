package filter

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/config"
	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/service"
)

const requestIDHeader = "X-Request-ID"

// AnalyzeRequest is the body of POST /api/v1/analyze
type AnalyzeRequest struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// errorResponse is the body of every non-2xx reply
type errorResponse struct {
	Error string `json:"error"`
}

// HTTPFilter exposes the analysis service as a JSON API
type HTTPFilter struct {
	analyzer Analyzer
	metrics  http.Handler
	logger   *zap.Logger
	cfg      config.ServerConfig
	router   *gin.Engine
	server   *http.Server
}

// NewHTTPFilter creates the HTTP front-end. metricsHandler may be nil.
func NewHTTPFilter(analyzer Analyzer, metricsHandler http.Handler, logger *zap.Logger, cfg config.ServerConfig) *HTTPFilter {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	f := &HTTPFilter{
		analyzer: analyzer,
		metrics:  metricsHandler,
		logger:   logger,
		cfg:      cfg,
		router:   gin.New(),
	}
	f.router.Use(gin.Recovery())
	f.setupRoutes()
	return f
}

// Handler returns the router, mainly for tests
func (f *HTTPFilter) Handler() http.Handler {
	return f.router
}

func (f *HTTPFilter) setupRoutes() {
	v1 := f.router.Group("/api/v1")
	{
		v1.POST("/analyze", f.analyzeHandler)
		v1.GET("/health", f.healthHandler)
	}

	if f.metrics != nil {
		f.router.GET("/metrics", gin.WrapH(f.metrics))
	}
}

func (f *HTTPFilter) analyzeHandler(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	report, err := f.analyzer.Analyze(c.Request.Context(), core.AnalysisInput{URL: req.URL, Message: req.Message})
	if errors.Is(err, service.ErrEmptyInput) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		f.logger.Error("Analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "analysis failed"})
		return
	}

	c.Header(requestIDHeader, report.RequestID)
	c.JSON(http.StatusOK, report.Result)
}

func (f *HTTPFilter) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// Start serves the API in the background
func (f *HTTPFilter) Start() error {
	f.server = &http.Server{
		Addr:              f.cfg.ListenAddress,
		Handler:           f.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	f.logger.Info("HTTP filter starting", zap.String("address", f.cfg.ListenAddress))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down
func (f *HTTPFilter) Stop() error {
	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return f.server.Shutdown(ctx)
}
