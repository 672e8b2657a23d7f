// Package resolver follows HTTP redirects to expand shortened URLs into
// their canonical form.
package resolver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vietddude/extractor/internal/metrics"
	"github.com/vietddude/extractor/internal/pipeline"
)

// maxRedirects bounds the chain so a redirect loop cannot hang a request.
const maxRedirects = 10

// HTTP resolves short links by issuing a request and recording the redirect
// chain. Requests to the same host are paced with a per-host token bucket
// so bursts of short links do not hammer one shortener.
type HTTP struct {
	transport http.RoundTripper
	timeout   time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewHTTP creates a resolver. timeout bounds the whole resolution; rps is
// the per-host request rate (<= 0 disables pacing).
func NewHTTP(timeout time.Duration, rps float64) *HTTP {
	if timeout <= 0 {
		timeout = pipeline.DefaultResolveTimeout
	}
	return &HTTP{
		transport: http.DefaultTransport,
		timeout:   timeout,
		limiters:  make(map[string]*rate.Limiter),
		rps:       rps,
	}
}

var _ pipeline.Resolver = (*HTTP)(nil)

// Resolve follows redirects from rawURL and reports where they land.
func (r *HTTP) Resolve(ctx context.Context, rawURL string) (*pipeline.ResolveResult, error) {
	start := time.Now()
	defer func() {
		metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.wait(ctx, rawURL); err != nil {
		return nil, err
	}

	var chain []string
	client := &http.Client{
		Transport: r.transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			chain = append(chain, req.URL.String())
			return nil
		},
	}

	final, err := r.follow(ctx, client, http.MethodHead, rawURL)
	if err != nil {
		// Some shorteners refuse HEAD; one GET retry covers those.
		chain = chain[:0]
		final, err = r.follow(ctx, client, http.MethodGet, rawURL)
		if err != nil {
			return nil, err
		}
	}

	return &pipeline.ResolveResult{
		Resolved:      final,
		Changed:       final != rawURL,
		RedirectChain: chain,
	}, nil
}

func (r *HTTP) follow(ctx context.Context, client *http.Client, method, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build resolve request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("resolve request returned status %d", resp.StatusCode)
	}
	return resp.Request.URL.String(), nil
}

// wait blocks on the host's pacing limiter.
func (r *HTTP) wait(ctx context.Context, rawURL string) error {
	if r.rps <= 0 {
		return nil
	}
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}

	r.mu.Lock()
	limiter, ok := r.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(r.rps), 1)
		r.limiters[host] = limiter
	}
	r.mu.Unlock()

	return limiter.Wait(ctx)
}

func hostOf(rawURL string) string {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	return req.URL.Hostname()
}
