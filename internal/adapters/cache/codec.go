package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mikey/phish-filter/internal/core"
	"github.com/mikey/phish-filter/internal/ports"
)

// row is the flat form of a cache entry shared by the SQL backends
type row struct {
	key        string
	isPhishing bool
	riskScore  float64
	reasons    string
	createdAt  int64
	expiresAt  int64
}

func toRow(entry *ports.CacheEntry) (row, error) {
	reasons, err := json.Marshal(entry.Result.Reasons)
	if err != nil {
		return row{}, fmt.Errorf("failed to encode reasons: %w", err)
	}
	return row{
		key:        entry.Key,
		isPhishing: entry.Result.IsPhishing,
		riskScore:  entry.Result.RiskScore,
		reasons:    string(reasons),
		createdAt:  entry.CreatedAt.UnixMilli(),
		expiresAt:  entry.ExpiresAt.UnixMilli(),
	}, nil
}

func (r row) entry() (*ports.CacheEntry, error) {
	var reasons []string
	if err := json.Unmarshal([]byte(r.reasons), &reasons); err != nil {
		return nil, fmt.Errorf("failed to decode reasons: %w", err)
	}
	if reasons == nil {
		reasons = []string{}
	}
	return &ports.CacheEntry{
		Key: r.key,
		Result: core.AnalysisResult{
			IsPhishing: r.isPhishing,
			RiskScore:  r.riskScore,
			Reasons:    reasons,
		},
		CreatedAt: time.UnixMilli(r.createdAt),
		ExpiresAt: time.UnixMilli(r.expiresAt),
	}, nil
}
