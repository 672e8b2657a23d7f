package credential

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/extractor/internal/core/domain"
)

// Prober performs a live platform request with a credential and reports
// whether the session is still valid.
type Prober interface {
	Probe(ctx context.Context, secret string) error
}

// HTTPProbe requests a page that needs a session and treats a redirect to
// the platform's login page as an expired session.
type HTTPProbe struct {
	URL         string
	LoginMarker string
	Client      *http.Client
}

// Probe issues the request. Redirects are not followed so the login
// redirect shows up as a Location header.
func (hp *HTTPProbe) Probe(ctx context.Context, secret string) error {
	client := hp.Client
	if client == nil {
		client = &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hp.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}
	req.Header.Set("Cookie", secret)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	if loc := resp.Header.Get("Location"); loc != "" && strings.Contains(loc, hp.LoginMarker) {
		return fmt.Errorf("session redirected to login page")
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("probe rejected with status %d", resp.StatusCode)
	}
	return nil
}

// probers holds the per-platform liveness checks. Platforms without an
// entry are treated as always healthy.
var probers = map[domain.Platform]Prober{
	domain.PlatformInstagram: &HTTPProbe{
		URL:         "https://www.instagram.com/accounts/edit/",
		LoginMarker: "/accounts/login",
	},
	domain.PlatformFacebook: &HTTPProbe{
		URL:         "https://www.facebook.com/settings",
		LoginMarker: "login",
	},
}

// ProbeHealth runs the platform's liveness check for a credential and
// updates its status: expired on failure, healthy on success. Platforms
// without a known probe are a no-op.
func (p *Pool) ProbeHealth(ctx context.Context, id string) (domain.CredentialStatus, error) {
	cred, err := p.repo.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	if cred == nil {
		return "", fmt.Errorf("credential %s not found", id)
	}

	prober, ok := probers[cred.Platform]
	if !ok {
		return cred.Status, nil
	}

	if err := prober.Probe(ctx, cred.Secret); err != nil {
		if serr := p.repo.SetStatus(ctx, id, domain.CredentialExpired, err.Error()); serr != nil {
			return "", fmt.Errorf("failed to mark credential expired: %w", serr)
		}
		p.log.Warn("credential failed health probe", "credential", id, "error", err)
		return domain.CredentialExpired, nil
	}

	if err := p.repo.SetStatus(ctx, id, domain.CredentialHealthy, ""); err != nil {
		return "", fmt.Errorf("failed to mark credential healthy: %w", err)
	}
	return domain.CredentialHealthy, nil
}
