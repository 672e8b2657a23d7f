package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/extractor/internal/cache"
	"github.com/vietddude/extractor/internal/core/domain"
)

// CacheStore implements cache.Store on Redis. Entries are JSON documents
// expired by Redis itself.
type CacheStore struct {
	client *Client
}

// NewCacheStore creates a Redis-backed response cache.
func NewCacheStore(client *Client) *CacheStore {
	return &CacheStore{client: client}
}

var _ cache.Store = (*CacheStore)(nil)

// Get returns the cached result for key.
func (s *CacheStore) Get(ctx context.Context, key string) (*domain.ExtractionResult, bool, error) {
	raw, err := s.client.rdb.Get(ctx, resultKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get failed: %w", err)
	}

	var res domain.ExtractionResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false, fmt.Errorf("cache entry corrupt: %w", err)
	}
	return &res, true, nil
}

// Set stores value under key for ttl.
func (s *CacheStore) Set(ctx context.Context, key string, value *domain.ExtractionResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := s.client.rdb.Set(ctx, resultKey(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Clear drops every cached result.
func (s *CacheStore) Clear(ctx context.Context) error {
	iter := s.client.rdb.Scan(ctx, 0, resultKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache clear failed: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan failed: %w", err)
	}
	return nil
}
