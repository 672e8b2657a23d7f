// Package redis backs the response cache and the rate-limit counters with
// Redis, for deployments that run more than one extractor instance.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for the extraction pipeline.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) (string, error) {
	return c.rdb.Ping(ctx).Result()
}

// Key helpers
func resultKey(cacheKey string) string {
	return fmt.Sprintf("result:%s", cacheKey)
}

func counterKey(ctxName, identifier string) string {
	return fmt.Sprintf("rl:%s:%s", ctxName, identifier)
}

func seenURLKey(ctxName, identifier string) string {
	return fmt.Sprintf("rlurl:%s:%s", ctxName, identifier)
}
