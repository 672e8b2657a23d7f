// Package cache stores extraction results keyed by the pipeline's
// "platform:contentId" cache key. A hit short-circuits rate limiting and
// credential selection entirely.
package cache

import (
	"context"
	"time"

	"github.com/vietddude/extractor/internal/core/domain"
)

// DefaultTTL applies when the per-platform configuration gives none.
const DefaultTTL = 5 * time.Minute

// Store abstracts the cache backend so the in-process map and an externally
// backed store are interchangeable.
type Store interface {
	// Get returns the cached result for key, and whether it was present.
	Get(ctx context.Context, key string) (*domain.ExtractionResult, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value *domain.ExtractionResult, ttl time.Duration) error

	// Clear drops every entry.
	Clear(ctx context.Context) error
}
