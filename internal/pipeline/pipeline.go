// Package pipeline turns a raw user-supplied URL into classified extraction
// metadata: canonical URL, platform, content id, content type, credential
// requirement and cache key.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vietddude/extractor/internal/core/domain"
	"github.com/vietddude/extractor/internal/core/errcode"
)

// ResolveResult is the outcome of following a short link's redirects.
type ResolveResult struct {
	Resolved      string
	Changed       bool
	RedirectChain []string
}

// Resolver follows HTTP redirects to expand shortened URLs.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (*ResolveResult, error)
}

// Options controls a single Prepare run.
type Options struct {
	SkipResolve  bool
	ForceResolve bool
	Timeout      time.Duration
}

// DefaultResolveTimeout bounds redirect resolution when the caller does not
// supply its own.
const DefaultResolveTimeout = 5 * time.Second

// Pipeline prepares URLs for extraction. The zero value works without
// resolution; attach a Resolver to expand short links.
type Pipeline struct {
	resolver Resolver
	log      *slog.Logger
}

// New creates a pipeline backed by the given resolver. A nil resolver
// disables resolution, which degrades short links to their unresolved form.
func New(resolver Resolver) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		log:      slog.With("component", "pipeline"),
	}
}

// Prepare validates, normalizes and classifies a raw URL. Resolution is the
// only step that touches the network; its failure is non-fatal and leaves
// the normalized URL in place.
func (p *Pipeline) Prepare(ctx context.Context, raw string, opts Options) *domain.URLInfo {
	info := p.prepare(raw)
	if !info.Assessment.IsValid && info.Assessment.ErrorCode == errcode.InvalidURL {
		return info
	}

	shouldResolve := opts.ForceResolve || NeedsResolve(info.NormalizedURL, info.Platform)
	if shouldResolve && !opts.SkipResolve && p.resolver != nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultResolveTimeout
		}
		rctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		res, err := p.resolver.Resolve(rctx, info.NormalizedURL)
		if err != nil {
			p.log.Debug("resolve failed, keeping normalized URL",
				"url", info.NormalizedURL, "error", err)
		} else if res.Changed {
			info.ResolvedURL = Normalize(res.Resolved)
			info.WasResolved = true
			info.RedirectChain = res.RedirectChain
			// A shortener can land on a different platform than it
			// started from, so detection runs again.
			info.Platform = DetectPlatform(info.ResolvedURL)
		}
	}

	return p.classify(info)
}

// PrepareSync is Prepare without any network I/O: resolution is skipped
// unconditionally and the call returns synchronously.
func (p *Pipeline) PrepareSync(raw string) *domain.URLInfo {
	info := p.prepare(raw)
	if !info.Assessment.IsValid && info.Assessment.ErrorCode == errcode.InvalidURL {
		return info
	}
	return p.classify(info)
}

// prepare runs validation and normalization, the part shared by both entry
// points.
func (p *Pipeline) prepare(raw string) *domain.URLInfo {
	info := &domain.URLInfo{
		InputURL:    raw,
		ContentType: domain.ContentUnknown,
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		info.Assessment = domain.Assessment{
			IsValid:      false,
			ErrorCode:    errcode.InvalidURL,
			ErrorMessage: errcode.Message(errcode.InvalidURL),
		}
		return info
	}

	normalized := Normalize(trimmed)
	if hostOf(normalized) == "" {
		info.Assessment = domain.Assessment{
			IsValid:      false,
			ErrorCode:    errcode.InvalidURL,
			ErrorMessage: errcode.Message(errcode.InvalidURL),
		}
		return info
	}

	info.NormalizedURL = normalized
	info.ResolvedURL = normalized
	info.Platform = DetectPlatform(normalized)
	info.Assessment.IsValid = true
	return info
}

// classify fills in platform-dependent metadata once the final URL is known.
func (p *Pipeline) classify(info *domain.URLInfo) *domain.URLInfo {
	if info.Platform == "" {
		info.Assessment = domain.Assessment{
			IsValid:      false,
			ErrorCode:    errcode.UnsupportedPlatform,
			ErrorMessage: errcode.Message(errcode.UnsupportedPlatform),
		}
		return info
	}

	finalURL := info.ResolvedURL
	info.ContentID = ExtractContentID(finalURL, info.Platform)
	info.ContentType = ClassifyContent(finalURL, info.Platform)
	info.Assessment.MayRequireCookie = MayRequireCookie(finalURL, info.Platform)

	if info.ContentID != "" {
		info.CacheKey = string(info.Platform) + ":" + info.ContentID
	}

	return info
}
