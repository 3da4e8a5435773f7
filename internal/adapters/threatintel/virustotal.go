package threatintel

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/core"
)

// VirusTotal looks up URL reports through the VirusTotal v3 API
type VirusTotal struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewVirusTotal creates a VirusTotal provider
func NewVirusTotal(apiKey, baseURL string, client *http.Client, logger *zap.Logger) (*VirusTotal, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("virustotal: %w", ErrNoCredential)
	}
	return &VirusTotal{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}, nil
}

func (p *VirusTotal) Name() string { return "VirusTotal" }

func (p *VirusTotal) Signal() core.Signal { return core.SignalVirusTotal }

// URLID is the identifier VirusTotal uses for a URL: unpadded base64url of the URL
func URLID(rawURL string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(rawURL))
}

type vtResponse struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats struct {
				Malicious  int `json:"malicious"`
				Suspicious int `json:"suspicious"`
				Harmless   int `json:"harmless"`
				Undetected int `json:"undetected"`
			} `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

// Check flags URLs that at least one engine reported as malicious or suspicious.
// Unknown URLs are clean.
func (p *VirusTotal) Check(ctx context.Context, rawURL string) (core.ThreatVerdict, error) {
	req, err := http.NewRequest(http.MethodGet, p.baseURL+"/api/v3/urls/"+URLID(rawURL), nil)
	if err != nil {
		return core.ThreatVerdict{}, err
	}
	req.Header.Set("x-apikey", p.apiKey)
	req.Header.Set("Accept", "application/json")

	var resp vtResponse
	found, err := doJSON(ctx, p.client, req, &resp)
	if err != nil {
		return core.ThreatVerdict{}, fmt.Errorf("virustotal lookup failed: %w", err)
	}
	if !found {
		return core.ThreatVerdict{}, nil
	}

	stats := resp.Data.Attributes.LastAnalysisStats
	if stats.Malicious == 0 && stats.Suspicious == 0 {
		return core.ThreatVerdict{}, nil
	}

	p.logger.Debug("VirusTotal detections",
		zap.String("url", rawURL),
		zap.Int("malicious", stats.Malicious),
		zap.Int("suspicious", stats.Suspicious))
	return core.ThreatVerdict{
		Flagged: true,
		Detail:  fmt.Sprintf("%d malicious, %d suspicious detections", stats.Malicious, stats.Suspicious),
	}, nil
}
