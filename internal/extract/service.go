// Package extract composes the URL pipeline, response cache, rate limiter,
// credential pool and the external per-platform extraction functions into
// one request flow.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/extractor/internal/cache"
	"github.com/vietddude/extractor/internal/core/domain"
	"github.com/vietddude/extractor/internal/core/errcode"
	"github.com/vietddude/extractor/internal/credential"
	"github.com/vietddude/extractor/internal/metrics"
	"github.com/vietddude/extractor/internal/pipeline"
	"github.com/vietddude/extractor/internal/ratelimit"
)

// AttemptOpts is what the service passes to a platform extractor.
type AttemptOpts struct {
	Credential *domain.Credential // nil when the attempt runs uncredentialed
	Timeout    time.Duration
}

// PlatformFunc is the external, per-platform extraction function. Its
// payload is opaque to this layer.
type PlatformFunc func(ctx context.Context, url string, opts AttemptOpts) *domain.ExtractionResult

// Registry maps platforms to their extraction functions.
type Registry map[domain.Platform]PlatformFunc

// Options controls one Extract call.
type Options struct {
	// Identifier is the rate-limit subject, typically the client IP.
	Identifier string
	// RateContext selects the limiter tier; defaults to "public".
	RateContext string
	// SkipCache bypasses the response cache lookup (the result is still
	// stored on success).
	SkipCache bool
	// SkipResolve disables short-link resolution.
	SkipResolve bool
	// Timeout bounds each individual extraction attempt.
	Timeout time.Duration
	// Retry overrides the default retry policy when non-nil.
	Retry *RetryOptions
}

// DefaultAttemptTimeout bounds a single platform extraction call.
const DefaultAttemptTimeout = 30 * time.Second

// Service is the request orchestrator.
type Service struct {
	pipeline *pipeline.Pipeline
	limiter  ratelimit.Checker
	cache    cache.Store
	pool     *credential.Pool // nil when no credential store is configured
	registry Registry
	cacheTTL map[domain.Platform]time.Duration
	log      *slog.Logger
}

// NewService wires the orchestrator. pool may be nil; requests then always
// run uncredentialed. cacheTTL entries override cache.DefaultTTL per
// platform.
func NewService(
	p *pipeline.Pipeline,
	limiter ratelimit.Checker,
	store cache.Store,
	pool *credential.Pool,
	registry Registry,
	cacheTTL map[domain.Platform]time.Duration,
) *Service {
	return &Service{
		pipeline: p,
		limiter:  limiter,
		cache:    store,
		pool:     pool,
		registry: registry,
		cacheTTL: cacheTTL,
		log:      slog.With("component", "extract"),
	}
}

// Extract runs the full flow for one raw URL: prepare, cache lookup, rate
// limit, credential selection, retried extraction, outcome recording and
// cache write. Every failure comes back as a structured result, never as a
// Go error.
func (s *Service) Extract(ctx context.Context, rawURL string, opts Options) *domain.ExtractionResult {
	start := time.Now()

	info := s.pipeline.Prepare(ctx, rawURL, pipeline.Options{
		SkipResolve: opts.SkipResolve,
	})
	if !info.Assessment.IsValid {
		metrics.ExtractionsTotal.WithLabelValues(label(info.Platform), "invalid").Inc()
		return domain.Failure(info.Assessment.ErrorCode, info.Assessment.ErrorMessage)
	}

	platform := info.Platform

	// A cache hit ends the request before it costs a rate-limit unit or a
	// credential.
	if info.CacheKey != "" && !opts.SkipCache {
		if cached, ok, err := s.cache.Get(ctx, info.CacheKey); err != nil {
			s.log.Warn("cache lookup failed", "key", info.CacheKey, "error", err)
		} else if ok {
			metrics.CacheHits.WithLabelValues(string(platform)).Inc()
			hit := *cached
			hit.Cached = true
			return &hit
		}
	}

	rateCtx := opts.RateContext
	if rateCtx == "" {
		rateCtx = "public"
	}
	if opts.Identifier != "" {
		rl := s.limiter.CheckWithURL(ctx, opts.Identifier, rateCtx, info.NormalizedURL, nil)
		if !rl.Allowed {
			metrics.RateLimitRejections.WithLabelValues(rateCtx).Inc()
			res := domain.Failure(errcode.RateLimited, "")
			res.ResetInMs = rl.ResetIn.Milliseconds()
			return res
		}
	}

	fn, ok := s.registry[platform]
	if !ok {
		metrics.ExtractionsTotal.WithLabelValues(string(platform), "unsupported").Inc()
		return domain.Failure(errcode.UnsupportedPlatform, "")
	}

	var sel *credential.Selection
	if s.pool != nil && info.Assessment.MayRequireCookie {
		var err error
		sel, err = s.pool.Select(ctx, platform)
		if err != nil {
			s.log.Warn("credential selection failed", "platform", platform, "error", err)
		} else if sel != nil {
			metrics.CredentialSelections.WithLabelValues(string(platform)).Inc()
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}

	attempt := func(ctx context.Context, useCookie bool) *domain.ExtractionResult {
		actx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		aopts := AttemptOpts{Timeout: timeout}
		if useCookie && sel != nil {
			aopts.Credential = sel.Credential
		}
		return fn(actx, info.ResolvedURL, aopts)
	}

	retryOpts := DefaultRetryOptions()
	if opts.Retry != nil {
		retryOpts = *opts.Retry
	}
	retryOpts.HasCookie = sel != nil

	res := WithRetry(ctx, attempt, retryOpts)

	s.recordOutcome(ctx, platform, sel, res)

	if res.Success && info.CacheKey != "" {
		ttl := s.cacheTTL[platform]
		if err := s.cache.Set(ctx, info.CacheKey, res, ttl); err != nil {
			s.log.Warn("cache write failed", "key", info.CacheKey, "error", err)
		}
	}

	outcome := "error"
	if res.Success {
		outcome = "success"
	}
	metrics.ExtractionsTotal.WithLabelValues(string(platform), outcome).Inc()
	metrics.ExtractionDuration.WithLabelValues(string(platform)).Observe(time.Since(start).Seconds())

	s.log.Info("extraction finished",
		"platform", platform,
		"contentId", info.ContentID,
		"success", res.Success,
		"errorCode", res.ErrorCode,
		"duration", time.Since(start))
	return res
}

// Prepare exposes the pipeline for callers that only need URL metadata.
func (s *Service) Prepare(ctx context.Context, rawURL string) *domain.URLInfo {
	return s.pipeline.Prepare(ctx, rawURL, pipeline.Options{})
}

// PrepareSync exposes the no-I/O validation path.
func (s *Service) PrepareSync(rawURL string) *domain.URLInfo {
	return s.pipeline.PrepareSync(rawURL)
}

// recordOutcome maps the final result onto exactly one outcome call for the
// selection handle.
func (s *Service) recordOutcome(ctx context.Context, platform domain.Platform, sel *credential.Selection, res *domain.ExtractionResult) {
	if sel == nil {
		return
	}

	var err error
	var outcome string
	switch {
	case res.Success:
		outcome = "success"
		err = s.pool.RecordSuccess(ctx, sel)
	case res.ErrorCode == errcode.RateLimited || res.ErrorCode == errcode.Blocked:
		outcome = "cooldown"
		err = s.pool.RecordCooldown(ctx, sel, 0, res.Error)
	case res.ErrorCode == errcode.CookieExpired || res.ErrorCode == errcode.CookieInvalid ||
		res.ErrorCode == errcode.VerificationRequired:
		outcome = "expired"
		err = s.pool.RecordExpired(ctx, sel, res.Error)
	default:
		outcome = "released"
		err = s.pool.Release(sel)
	}
	if err != nil {
		s.log.Warn("failed to record credential outcome",
			"platform", platform, "outcome", outcome, "error", err)
		return
	}
	metrics.CredentialOutcomes.WithLabelValues(string(platform), outcome).Inc()
}

func label(p domain.Platform) string {
	if p == "" {
		return "unknown"
	}
	return string(p)
}

// Clear drops the response cache, for administrative use.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
