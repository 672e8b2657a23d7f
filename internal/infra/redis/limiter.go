package redis

import (
	"context"
	"log/slog"

	"github.com/vietddude/extractor/internal/ratelimit"
)

// Limiter implements ratelimit.Checker on Redis so multiple instances share
// one set of windows. Counters use INCR with a window-length expiry; the
// window is fixed, started by the first request that creates the key.
//
// On Redis failure the limiter fails open: blocking all traffic because the
// counter store is down would be worse than briefly not limiting it.
type Limiter struct {
	client *Client
	log    *slog.Logger
}

// NewLimiter creates a Redis-backed limiter.
func NewLimiter(client *Client) *Limiter {
	return &Limiter{
		client: client,
		log:    slog.With("component", "redis_limiter"),
	}
}

var _ ratelimit.Checker = (*Limiter)(nil)

// Check consumes one unit from the (ctxName, identifier) window.
func (l *Limiter) Check(ctx context.Context, identifier, ctxName string, o *ratelimit.Override) ratelimit.Result {
	return l.check(ctx, identifier, ctxName, "", o)
}

// CheckWithURL exempts a normalized URL already seen inside the active
// window from consuming a unit.
func (l *Limiter) CheckWithURL(ctx context.Context, identifier, ctxName, normalizedURL string, o *ratelimit.Override) ratelimit.Result {
	return l.check(ctx, identifier, ctxName, normalizedURL, o)
}

func (l *Limiter) check(ctx context.Context, identifier, ctxName, normalizedURL string, o *ratelimit.Override) ratelimit.Result {
	cfg := ratelimit.Contexts[ctxName]
	if cfg.MaxRequests == 0 {
		cfg = ratelimit.Contexts["public"]
	}
	if o != nil {
		if o.MaxRequests > 0 {
			cfg.MaxRequests = o.MaxRequests
		}
		if o.Window > 0 {
			cfg.Window = o.Window
		}
	}

	rdb := l.client.rdb
	key := counterKey(ctxName, identifier)
	urlKey := seenURLKey(ctxName, identifier)

	if normalizedURL != "" {
		seen, err := rdb.SIsMember(ctx, urlKey, normalizedURL).Result()
		if err == nil && seen {
			count, _ := rdb.Get(ctx, key).Int()
			remaining := cfg.MaxRequests - count
			if remaining < 0 {
				remaining = 0
			}
			return ratelimit.Result{Allowed: true, Remaining: remaining}
		}
	}

	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		l.log.Warn("counter incr failed, failing open", "key", key, "error", err)
		return ratelimit.Result{Allowed: true, Remaining: cfg.MaxRequests}
	}
	if count == 1 {
		if err := rdb.PExpire(ctx, key, cfg.Window).Err(); err != nil {
			l.log.Warn("counter expire failed", "key", key, "error", err)
		}
	}

	if count > int64(cfg.MaxRequests) {
		resetIn, err := rdb.PTTL(ctx, key).Result()
		if err != nil || resetIn < 0 {
			resetIn = cfg.Window
		}
		return ratelimit.Result{Allowed: false, Remaining: 0, ResetIn: resetIn}
	}

	if normalizedURL != "" {
		if err := rdb.SAdd(ctx, urlKey, normalizedURL).Err(); err == nil {
			rdb.PExpire(ctx, urlKey, cfg.Window)
		}
	}

	remaining := cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return ratelimit.Result{Allowed: true, Remaining: remaining}
}
