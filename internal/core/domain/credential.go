package domain

import "time"

// CredentialStatus is the health state of a pooled credential.
type CredentialStatus string

const (
	CredentialHealthy  CredentialStatus = "healthy"
	CredentialCooldown CredentialStatus = "cooldown"
	CredentialExpired  CredentialStatus = "expired"
	CredentialDisabled CredentialStatus = "disabled"
)

// Credential is a captured platform session held in the rotating pool.
// The Secret field is opaque to the orchestration layer; the durable store
// is responsible for encrypting it at rest.
type Credential struct {
	ID            string           `db:"id"`
	Platform      Platform         `db:"platform"`
	Secret        string           `db:"secret"`
	Status        CredentialStatus `db:"status"`
	Enabled       bool             `db:"enabled"`
	LastUsedAt    *time.Time       `db:"last_used_at"`
	UseCount      int              `db:"use_count"`
	SuccessCount  int              `db:"success_count"`
	ErrorCount    int              `db:"error_count"`
	LastError     *string          `db:"last_error"`
	CooldownUntil *time.Time       `db:"cooldown_until"`
	MaxUsesPerHr  int              `db:"max_uses_per_hour"`
	CreatedAt     time.Time        `db:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at"`
}

// Usable reports whether the credential can be handed out right now.
// A cooldown credential becomes usable again once its cooldown has elapsed,
// but promotion back to healthy happens lazily in the pool, not here.
func (c *Credential) Usable(now time.Time) bool {
	if !c.Enabled {
		return false
	}
	switch c.Status {
	case CredentialHealthy:
		return c.CooldownUntil == nil || now.After(*c.CooldownUntil)
	case CredentialCooldown:
		return c.CooldownUntil != nil && now.After(*c.CooldownUntil)
	default:
		return false
	}
}
