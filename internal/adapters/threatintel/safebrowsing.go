package threatintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/phish-filter/internal/core"
)

// SafeBrowsing checks URLs against the Google Safe Browsing v4 lookup API
type SafeBrowsing struct {
	apiKey   string
	baseURL  string
	clientID string
	client   *http.Client
	logger   *zap.Logger
}

// NewSafeBrowsing creates a Safe Browsing provider
func NewSafeBrowsing(apiKey, baseURL, clientID string, client *http.Client, logger *zap.Logger) (*SafeBrowsing, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google safe browsing: %w", ErrNoCredential)
	}
	return &SafeBrowsing{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		client:   client,
		logger:   logger,
	}, nil
}

func (p *SafeBrowsing) Name() string { return "Google Safe Browsing" }

func (p *SafeBrowsing) Signal() core.Signal { return core.SignalGoogleSafeBrowsing }

type sbThreatEntry struct {
	URL string `json:"url"`
}

type sbRequest struct {
	Client struct {
		ClientID      string `json:"clientId"`
		ClientVersion string `json:"clientVersion"`
	} `json:"client"`
	ThreatInfo struct {
		ThreatTypes      []string        `json:"threatTypes"`
		PlatformTypes    []string        `json:"platformTypes"`
		ThreatEntryTypes []string        `json:"threatEntryTypes"`
		ThreatEntries    []sbThreatEntry `json:"threatEntries"`
	} `json:"threatInfo"`
}

type sbResponse struct {
	Matches []struct {
		ThreatType   string `json:"threatType"`
		PlatformType string `json:"platformType"`
	} `json:"matches"`
}

// Check reports whether any list matches the URL
func (p *SafeBrowsing) Check(ctx context.Context, rawURL string) (core.ThreatVerdict, error) {
	var body sbRequest
	body.Client.ClientID = p.clientID
	body.Client.ClientVersion = "1.0"
	body.ThreatInfo.ThreatTypes = []string{"MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE", "POTENTIALLY_HARMFUL_APPLICATION"}
	body.ThreatInfo.PlatformTypes = []string{"ANY_PLATFORM"}
	body.ThreatInfo.ThreatEntryTypes = []string{"URL"}
	body.ThreatInfo.ThreatEntries = []sbThreatEntry{{URL: rawURL}}

	payload, err := json.Marshal(body)
	if err != nil {
		return core.ThreatVerdict{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := p.baseURL + "/v4/threatMatches:find?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return core.ThreatVerdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp sbResponse
	if _, err := doJSON(ctx, p.client, req, &resp); err != nil {
		return core.ThreatVerdict{}, fmt.Errorf("google safe browsing lookup failed: %w", err)
	}
	if len(resp.Matches) == 0 {
		return core.ThreatVerdict{}, nil
	}

	seen := make(map[string]bool)
	var types []string
	for _, m := range resp.Matches {
		if !seen[m.ThreatType] {
			seen[m.ThreatType] = true
			types = append(types, m.ThreatType)
		}
	}
	p.logger.Debug("Safe Browsing match", zap.String("url", rawURL), zap.Strings("threat_types", types))
	return core.ThreatVerdict{Flagged: true, Detail: strings.Join(types, ", ")}, nil
}
