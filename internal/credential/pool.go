// Package credential manages the rotating pool of platform credentials.
//
// Each credential moves through a small state machine:
//
//	healthy  -> cooldown  (rate-limited outcome)
//	healthy  -> expired   (session-invalid outcome)
//	cooldown -> expired   (session-invalid outcome)
//	cooldown -> healthy   (lazy promotion, only when no healthy candidate exists)
//	any      -> disabled  (administrative action only)
//
// There is no automatic expired -> healthy recovery; expired credentials
// must be re-issued by an operator.
package credential

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/extractor/internal/core/domain"
	"github.com/vietddude/extractor/internal/infra/storage"
)

// DefaultCooldown applies when a rate-limited outcome gives no duration.
const DefaultCooldown = 30 * time.Minute

// Selection correlates one credential hand-out with its later outcome
// report. The handle travels with the request instead of living in shared
// state, so concurrent requests can never clobber each other's selection.
type Selection struct {
	Handle     string
	Credential *domain.Credential
}

// Pool selects credentials and records attempt outcomes against the
// durable repository.
type Pool struct {
	repo     storage.CredentialRepository
	cooldown time.Duration
	log      *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	pending map[string]*Selection
}

// NewPool creates a pool over the given repository. cooldown is the default
// duration applied by RecordCooldown when the caller passes zero.
func NewPool(repo storage.CredentialRepository, cooldown time.Duration) *Pool {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Pool{
		repo:     repo,
		cooldown: cooldown,
		log:      slog.With("component", "credential_pool"),
		now:      time.Now,
		pending:  make(map[string]*Selection),
	}
}

// Select picks the least-recently-used healthy credential for a platform.
// When no healthy candidate exists, an enabled cooldown credential whose
// cooldown elapsed is promoted back to healthy and used. An empty pool is
// not an error: Select returns (nil, nil) and the caller proceeds without
// a credential.
func (p *Pool) Select(ctx context.Context, platform domain.Platform) (*Selection, error) {
	now := p.now()

	// Maintenance only; selection below does not depend on it.
	if err := p.repo.ClearElapsedCooldowns(ctx, platform, now); err != nil {
		p.log.Debug("cooldown cleanup failed", "platform", platform, "error", err)
	}

	cred, err := p.pickCandidate(ctx, platform, now)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, nil
	}

	if err := p.repo.MarkUsed(ctx, cred.ID, now); err != nil {
		return nil, fmt.Errorf("failed to mark credential used: %w", err)
	}
	cred.UseCount++
	cred.LastUsedAt = &now

	sel := &Selection{
		Handle:     uuid.NewString(),
		Credential: cred,
	}

	p.mu.Lock()
	p.pending[sel.Handle] = sel
	p.mu.Unlock()

	p.log.Debug("credential selected",
		"platform", platform, "credential", cred.ID, "handle", sel.Handle)
	return sel, nil
}

func (p *Pool) pickCandidate(ctx context.Context, platform domain.Platform, now time.Time) (*domain.Credential, error) {
	candidates, err := p.repo.ListCandidates(ctx, platform, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	if len(candidates) > 0 {
		return candidates[0], nil
	}

	// Fallback: every healthy candidate is gone, so an elapsed cooldown
	// credential gets promoted and used.
	elapsed, err := p.repo.ListCooldownElapsed(ctx, platform, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query cooldown credentials: %w", err)
	}
	if len(elapsed) == 0 {
		return nil, nil
	}

	cred := elapsed[0]
	if err := p.repo.SetStatus(ctx, cred.ID, domain.CredentialHealthy, ""); err != nil {
		return nil, fmt.Errorf("failed to promote credential: %w", err)
	}
	cred.Status = domain.CredentialHealthy
	p.log.Info("cooldown credential promoted",
		"platform", platform, "credential", cred.ID)
	return cred, nil
}

// take claims the pending selection for a handle. Each handle can be
// claimed exactly once.
func (p *Pool) take(handle string) (*Selection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sel, ok := p.pending[handle]
	if !ok {
		return nil, fmt.Errorf("unknown or already completed selection handle %q", handle)
	}
	delete(p.pending, handle)
	return sel, nil
}

// RecordSuccess reports a successful attempt for a selection.
func (p *Pool) RecordSuccess(ctx context.Context, sel *Selection) error {
	claimed, err := p.take(sel.Handle)
	if err != nil {
		return err
	}
	if err := p.repo.RecordSuccess(ctx, claimed.Credential.ID); err != nil {
		return fmt.Errorf("failed to record success: %w", err)
	}
	return nil
}

// Release finishes a selection without touching the credential's counters.
// Used for failures the credential had no part in (content gone, parse
// errors), so the handle is still consumed exactly once.
func (p *Pool) Release(sel *Selection) error {
	_, err := p.take(sel.Handle)
	return err
}

// RecordCooldown reports a rate-limited attempt; the credential rests for
// the given duration (the pool default when d is zero).
func (p *Pool) RecordCooldown(ctx context.Context, sel *Selection, d time.Duration, errMsg string) error {
	claimed, err := p.take(sel.Handle)
	if err != nil {
		return err
	}
	if d <= 0 {
		d = p.cooldown
	}
	until := p.now().Add(d)
	if err := p.repo.SetCooldown(ctx, claimed.Credential.ID, until, errMsg); err != nil {
		return fmt.Errorf("failed to record cooldown: %w", err)
	}
	p.log.Warn("credential placed in cooldown",
		"credential", claimed.Credential.ID, "until", until, "error", errMsg)
	return nil
}

// RecordExpired reports a session-invalid attempt. The credential stays
// expired until an operator re-issues it.
func (p *Pool) RecordExpired(ctx context.Context, sel *Selection, errMsg string) error {
	claimed, err := p.take(sel.Handle)
	if err != nil {
		return err
	}
	if err := p.repo.SetStatus(ctx, claimed.Credential.ID, domain.CredentialExpired, errMsg); err != nil {
		return fmt.Errorf("failed to record expiry: %w", err)
	}
	p.log.Warn("credential expired",
		"credential", claimed.Credential.ID, "error", errMsg)
	return nil
}
