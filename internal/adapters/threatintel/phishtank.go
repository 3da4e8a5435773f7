package threatintel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/core"
)

// PhishTank checks URLs against the PhishTank community database
type PhishTank struct {
	appKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewPhishTank creates a PhishTank provider. An empty app key yields ErrNoCredential.
func NewPhishTank(appKey, baseURL string, client *http.Client, logger *zap.Logger) (*PhishTank, error) {
	if appKey == "" {
		return nil, fmt.Errorf("phishtank: %w", ErrNoCredential)
	}
	return &PhishTank{
		appKey:  appKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}, nil
}

func (p *PhishTank) Name() string { return "PhishTank" }

func (p *PhishTank) Signal() core.Signal { return core.SignalPhishTank }

type ptResponse struct {
	Results struct {
		URL        string      `json:"url"`
		InDatabase bool        `json:"in_database"`
		PhishID    interface{} `json:"phish_id"`
		Verified   bool        `json:"verified"`
		Valid      bool        `json:"valid"`
	} `json:"results"`
}

// Check flags URLs that are in the database and still marked valid
func (p *PhishTank) Check(ctx context.Context, rawURL string) (core.ThreatVerdict, error) {
	form := url.Values{}
	form.Set("url", rawURL)
	form.Set("format", "json")
	form.Set("app_key", p.appKey)

	req, err := http.NewRequest(http.MethodPost, p.baseURL+"/checkurl/", strings.NewReader(form.Encode()))
	if err != nil {
		return core.ThreatVerdict{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "phishtank/phish-filter")

	var resp ptResponse
	if _, err := doJSON(ctx, p.client, req, &resp); err != nil {
		return core.ThreatVerdict{}, fmt.Errorf("phishtank lookup failed: %w", err)
	}
	if !resp.Results.InDatabase || !resp.Results.Valid {
		return core.ThreatVerdict{}, nil
	}

	detail := "listed as an active phish"
	if resp.Results.Verified {
		detail = "verified active phish"
	}
	p.logger.Debug("PhishTank match", zap.String("url", rawURL), zap.Any("phish_id", resp.Results.PhishID))
	return core.ThreatVerdict{Flagged: true, Detail: detail}, nil
}
