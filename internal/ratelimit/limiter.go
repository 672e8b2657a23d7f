// Package ratelimit implements fixed-window request counting keyed by
// (context, identifier). A context names a tier of traffic with its own
// window size and budget.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// ContextConfig defines the budget for one rate-limit context.
type ContextConfig struct {
	MaxRequests int
	Window      time.Duration
}

// Contexts holds the built-in tiers. "platform" is the stricter legacy
// window applied to uncredentialed platform traffic.
var Contexts = map[string]ContextConfig{
	"public":   {MaxRequests: 15, Window: time.Minute},
	"session":  {MaxRequests: 100, Window: time.Minute},
	"admin":    {MaxRequests: 60, Window: time.Minute},
	"platform": {MaxRequests: 5, Window: 5 * time.Minute},
}

// Override replaces the context's configured budget for a single check.
type Override struct {
	MaxRequests int
	Window      time.Duration
}

// Result is the outcome of a rate-limit check. ResetIn is only meaningful
// when Allowed is false.
type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Checker is the limiter surface the extraction service depends on, so the
// in-memory limiter and an externally backed one are interchangeable.
type Checker interface {
	Check(ctx context.Context, identifier, ctxName string, o *Override) Result
	CheckWithURL(ctx context.Context, identifier, ctxName, normalizedURL string, o *Override) Result
}

// sweepThreshold is the counter-map size at which expired windows are
// swept out.
const sweepThreshold = 10000

// maxTrackedURLs bounds the per-counter duplicate-URL set.
const maxTrackedURLs = 32

type counter struct {
	count     int
	windowEnd time.Time
	seenURLs  map[string]struct{}
}

// Limiter is the in-process implementation backed by a mutex-guarded map.
type Limiter struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

// NewLimiter creates an in-memory limiter.
func NewLimiter() *Limiter {
	return &Limiter{
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// Check consumes one unit from the (ctxName, identifier) window. Within one
// window no more than MaxRequests calls ever return Allowed.
func (l *Limiter) Check(_ context.Context, identifier, ctxName string, o *Override) Result {
	return l.check(identifier, ctxName, "", o)
}

// CheckWithURL behaves like Check, except a normalized URL already seen by
// this identifier inside the active window does not consume a unit. This is
// a deliberate allowance paired with the response cache, so a repeated
// request for the same content is never the thing that exhausts a window.
func (l *Limiter) CheckWithURL(_ context.Context, identifier, ctxName, normalizedURL string, o *Override) Result {
	return l.check(identifier, ctxName, normalizedURL, o)
}

func (l *Limiter) check(identifier, ctxName, normalizedURL string, o *Override) Result {
	cfg := Contexts[ctxName]
	if cfg.MaxRequests == 0 {
		cfg = Contexts["public"]
	}
	if o != nil {
		if o.MaxRequests > 0 {
			cfg.MaxRequests = o.MaxRequests
		}
		if o.Window > 0 {
			cfg.Window = o.Window
		}
	}

	key := ctxName + ":" + identifier
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.counters) > sweepThreshold {
		l.sweep(now)
	}

	c, ok := l.counters[key]
	if !ok || now.After(c.windowEnd) {
		c = &counter{count: 1, windowEnd: now.Add(cfg.Window)}
		l.counters[key] = c
		c.remember(normalizedURL)
		return Result{Allowed: true, Remaining: cfg.MaxRequests - 1}
	}

	if normalizedURL != "" {
		if _, seen := c.seenURLs[normalizedURL]; seen {
			remaining := cfg.MaxRequests - c.count
			if remaining < 0 {
				remaining = 0
			}
			return Result{Allowed: true, Remaining: remaining}
		}
	}

	if c.count >= cfg.MaxRequests {
		return Result{Allowed: false, Remaining: 0, ResetIn: c.windowEnd.Sub(now)}
	}

	c.count++
	c.remember(normalizedURL)
	return Result{Allowed: true, Remaining: cfg.MaxRequests - c.count}
}

func (c *counter) remember(normalizedURL string) {
	if normalizedURL == "" {
		return
	}
	if c.seenURLs == nil {
		c.seenURLs = make(map[string]struct{})
	}
	if len(c.seenURLs) < maxTrackedURLs {
		c.seenURLs[normalizedURL] = struct{}{}
	}
}

// sweep drops counters whose window already elapsed. Caller holds the lock.
func (l *Limiter) sweep(now time.Time) {
	for key, c := range l.counters {
		if now.After(c.windowEnd) {
			delete(l.counters, key)
		}
	}
}

// Size returns the number of live counters, for tests and metrics.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}
