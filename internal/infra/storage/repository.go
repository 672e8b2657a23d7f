package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/extractor/internal/core/domain"
)

var (
	// ErrCredentialNotFound is returned when a credential doesn't exist
	ErrCredentialNotFound = errors.New("credential not found")
)

// CredentialRepository is the durable source of truth for the credential
// pool. Status-machine fields are mutated through the dedicated update
// methods, never by rewriting whole rows, so concurrent selections from
// separate processes stay consistent.
type CredentialRepository interface {
	// Create inserts a new credential (administrative action).
	Create(ctx context.Context, cred *domain.Credential) error

	// GetByID retrieves a credential by id.
	GetByID(ctx context.Context, id string) (*domain.Credential, error)

	// List retrieves every credential, all platforms.
	List(ctx context.Context) ([]*domain.Credential, error)

	// ListCandidates retrieves enabled, healthy credentials for a platform
	// whose cooldown (if any) has elapsed, ordered least-recently-used
	// first, then by lowest use count.
	ListCandidates(ctx context.Context, platform domain.Platform, now time.Time) ([]*domain.Credential, error)

	// ListCooldownElapsed retrieves enabled cooldown credentials for a
	// platform whose cooldown_until has passed, same ordering.
	ListCooldownElapsed(ctx context.Context, platform domain.Platform, now time.Time) ([]*domain.Credential, error)

	// ClearElapsedCooldowns zeroes cooldown_until on healthy credentials
	// whose cooldown already passed. Pure maintenance.
	ClearElapsedCooldowns(ctx context.Context, platform domain.Platform, now time.Time) error

	// MarkUsed bumps last_used_at and use_count for a selection.
	MarkUsed(ctx context.Context, id string, at time.Time) error

	// RecordSuccess bumps success_count and clears last_error.
	RecordSuccess(ctx context.Context, id string) error

	// SetCooldown moves the credential into cooldown until the given time,
	// bumping error_count and recording the error.
	SetCooldown(ctx context.Context, id string, until time.Time, errMsg string) error

	// SetStatus sets the status directly, optionally recording an error.
	SetStatus(ctx context.Context, id string, status domain.CredentialStatus, errMsg string) error

	// SetEnabled flips the administrative enabled flag.
	SetEnabled(ctx context.Context, id string, enabled bool) error

	// Delete removes a credential (administrative action).
	Delete(ctx context.Context, id string) error
}
