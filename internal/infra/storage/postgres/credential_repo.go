package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/extractor/internal/core/domain"
	"github.com/vietddude/extractor/internal/infra/storage"
)

// CredentialRepo implements storage.CredentialRepository using PostgreSQL.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new PostgreSQL credential repository.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

var _ storage.CredentialRepository = (*CredentialRepo)(nil)

// Create inserts a new credential.
func (r *CredentialRepo) Create(ctx context.Context, cred *domain.Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	if cred.Status == "" {
		cred.Status = domain.CredentialHealthy
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credentials
			(id, platform, secret, status, enabled, max_uses_per_hour, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())`,
		cred.ID, cred.Platform, cred.Secret, cred.Status, cred.Enabled, cred.MaxUsesPerHr,
	)
	if err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

// GetByID retrieves a credential by id.
func (r *CredentialRepo) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	var cred domain.Credential
	err := r.db.GetContext(ctx, &cred, `SELECT * FROM credentials WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &cred, nil
}

// List retrieves every credential.
func (r *CredentialRepo) List(ctx context.Context) ([]*domain.Credential, error) {
	var creds []*domain.Credential
	err := r.db.SelectContext(ctx, &creds,
		`SELECT * FROM credentials ORDER BY platform, created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	return creds, nil
}

// ListCandidates retrieves usable healthy credentials, least-recently-used
// first.
func (r *CredentialRepo) ListCandidates(ctx context.Context, platform domain.Platform, now time.Time) ([]*domain.Credential, error) {
	var creds []*domain.Credential
	err := r.db.SelectContext(ctx, &creds, `
		SELECT * FROM credentials
		WHERE platform = $1
		  AND enabled
		  AND status = 'healthy'
		  AND (cooldown_until IS NULL OR cooldown_until < $2)
		ORDER BY last_used_at ASC NULLS FIRST, use_count ASC`,
		platform, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list credential candidates: %w", err)
	}
	return creds, nil
}

// ListCooldownElapsed retrieves cooldown credentials whose rest period has
// passed.
func (r *CredentialRepo) ListCooldownElapsed(ctx context.Context, platform domain.Platform, now time.Time) ([]*domain.Credential, error) {
	var creds []*domain.Credential
	err := r.db.SelectContext(ctx, &creds, `
		SELECT * FROM credentials
		WHERE platform = $1
		  AND enabled
		  AND status = 'cooldown'
		  AND cooldown_until IS NOT NULL
		  AND cooldown_until < $2
		ORDER BY last_used_at ASC NULLS FIRST, use_count ASC`,
		platform, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cooldown credentials: %w", err)
	}
	return creds, nil
}

// ClearElapsedCooldowns zeroes stale cooldown timestamps on healthy rows.
func (r *CredentialRepo) ClearElapsedCooldowns(ctx context.Context, platform domain.Platform, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET cooldown_until = NULL, updated_at = now()
		WHERE platform = $1 AND status = 'healthy'
		  AND cooldown_until IS NOT NULL AND cooldown_until < $2`,
		platform, now,
	)
	if err != nil {
		return fmt.Errorf("failed to clear elapsed cooldowns: %w", err)
	}
	return nil
}

// MarkUsed bumps the usage counters for a selection.
func (r *CredentialRepo) MarkUsed(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET last_used_at = $2, use_count = use_count + 1, updated_at = now()
		WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return fmt.Errorf("failed to mark credential used: %w", err)
	}
	return requireRow(res)
}

// RecordSuccess bumps success_count and clears the last error.
func (r *CredentialRepo) RecordSuccess(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET success_count = success_count + 1, last_error = NULL, updated_at = now()
		WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to record success: %w", err)
	}
	return requireRow(res)
}

// SetCooldown moves a credential into cooldown.
func (r *CredentialRepo) SetCooldown(ctx context.Context, id string, until time.Time, errMsg string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET status = 'cooldown', cooldown_until = $2,
		    error_count = error_count + 1, last_error = $3, updated_at = now()
		WHERE id = $1`,
		id, until, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to set cooldown: %w", err)
	}
	return requireRow(res)
}

// SetStatus updates the status directly. A transition to healthy clears the
// cooldown timestamp and last error.
func (r *CredentialRepo) SetStatus(ctx context.Context, id string, status domain.CredentialStatus, errMsg string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE credentials
		SET status = $2,
		    cooldown_until = CASE WHEN $2 = 'healthy' THEN NULL ELSE cooldown_until END,
		    last_error = CASE WHEN $2 = 'healthy' THEN NULL ELSE NULLIF($3, '') END,
		    updated_at = now()
		WHERE id = $1`,
		id, status, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return requireRow(res)
}

// SetEnabled flips the administrative enabled flag.
func (r *CredentialRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE credentials SET enabled = $2, updated_at = now() WHERE id = $1`,
		id, enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to set enabled: %w", err)
	}
	return requireRow(res)
}

// Delete removes a credential.
func (r *CredentialRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrCredentialNotFound
	}
	return nil
}
