package ports

import (
	"context"
	"errors"
	"time"

	"github.com/mikey/phish-filter/internal/core"
)

// ErrCacheMiss is returned by Get when no live entry exists for the key
var ErrCacheMiss = errors.New("cache entry not found")

// CacheEntry is a cached verdict for a candidate URL under one settings fingerprint
type CacheEntry struct {
	Key       string
	Result    core.AnalysisResult
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry is no longer valid at now
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// CacheRepository defines the interface for caching analysis verdicts
type CacheRepository interface {
	// Get retrieves a live cached entry by key; misses return ErrCacheMiss
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
