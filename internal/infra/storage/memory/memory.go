// Package memory implements the credential repository in process memory,
// for tests and single-instance deployments without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/extractor/internal/core/domain"
	"github.com/vietddude/extractor/internal/infra/storage"
)

// CredentialRepo is the in-memory implementation of
// storage.CredentialRepository.
type CredentialRepo struct {
	mu    sync.RWMutex
	creds map[string]*domain.Credential
}

// NewCredentialRepo creates an empty in-memory repository.
func NewCredentialRepo() *CredentialRepo {
	return &CredentialRepo{creds: make(map[string]*domain.Credential)}
}

var _ storage.CredentialRepository = (*CredentialRepo)(nil)

func (r *CredentialRepo) Create(_ context.Context, cred *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	if cred.Status == "" {
		cred.Status = domain.CredentialHealthy
	}
	now := time.Now()
	cred.CreatedAt = now
	cred.UpdatedAt = now

	clone := *cred
	r.creds[cred.ID] = &clone
	return nil
}

func (r *CredentialRepo) GetByID(_ context.Context, id string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cred, ok := r.creds[id]
	if !ok {
		return nil, nil
	}
	clone := *cred
	return &clone, nil
}

func (r *CredentialRepo) List(_ context.Context) ([]*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Credential, 0, len(r.creds))
	for _, cred := range r.creds {
		clone := *cred
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Platform != out[j].Platform {
			return out[i].Platform < out[j].Platform
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CredentialRepo) ListCandidates(_ context.Context, platform domain.Platform, now time.Time) ([]*domain.Credential, error) {
	return r.listWhere(platform, now, domain.CredentialHealthy)
}

func (r *CredentialRepo) ListCooldownElapsed(_ context.Context, platform domain.Platform, now time.Time) ([]*domain.Credential, error) {
	return r.listWhere(platform, now, domain.CredentialCooldown)
}

// listWhere collects enabled credentials in the given status whose cooldown
// (if any) has elapsed, ordered least-recently-used then lowest use count.
func (r *CredentialRepo) listWhere(platform domain.Platform, now time.Time, status domain.CredentialStatus) ([]*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Credential
	for _, cred := range r.creds {
		if cred.Platform != platform || !cred.Enabled || cred.Status != status {
			continue
		}
		if status == domain.CredentialCooldown &&
			(cred.CooldownUntil == nil || !now.After(*cred.CooldownUntil)) {
			continue
		}
		if status == domain.CredentialHealthy &&
			cred.CooldownUntil != nil && !now.After(*cred.CooldownUntil) {
			continue
		}
		clone := *cred
		out = append(out, &clone)
	}

	sort.Slice(out, func(i, j int) bool {
		li, lj := out[i].LastUsedAt, out[j].LastUsedAt
		switch {
		case li == nil && lj != nil:
			return true
		case li != nil && lj == nil:
			return false
		case li != nil && lj != nil && !li.Equal(*lj):
			return li.Before(*lj)
		}
		return out[i].UseCount < out[j].UseCount
	})
	return out, nil
}

func (r *CredentialRepo) ClearElapsedCooldowns(_ context.Context, platform domain.Platform, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cred := range r.creds {
		if cred.Platform == platform && cred.Status == domain.CredentialHealthy &&
			cred.CooldownUntil != nil && now.After(*cred.CooldownUntil) {
			cred.CooldownUntil = nil
			cred.UpdatedAt = now
		}
	}
	return nil
}

func (r *CredentialRepo) MarkUsed(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(cred *domain.Credential) {
		used := at
		cred.LastUsedAt = &used
		cred.UseCount++
	})
}

func (r *CredentialRepo) RecordSuccess(_ context.Context, id string) error {
	return r.update(id, func(cred *domain.Credential) {
		cred.SuccessCount++
		cred.LastError = nil
	})
}

func (r *CredentialRepo) SetCooldown(_ context.Context, id string, until time.Time, errMsg string) error {
	return r.update(id, func(cred *domain.Credential) {
		cred.Status = domain.CredentialCooldown
		u := until
		cred.CooldownUntil = &u
		cred.ErrorCount++
		msg := errMsg
		cred.LastError = &msg
	})
}

func (r *CredentialRepo) SetStatus(_ context.Context, id string, status domain.CredentialStatus, errMsg string) error {
	return r.update(id, func(cred *domain.Credential) {
		cred.Status = status
		if status == domain.CredentialHealthy {
			cred.CooldownUntil = nil
			cred.LastError = nil
			return
		}
		if errMsg != "" {
			msg := errMsg
			cred.LastError = &msg
		}
	})
}

func (r *CredentialRepo) SetEnabled(_ context.Context, id string, enabled bool) error {
	return r.update(id, func(cred *domain.Credential) {
		cred.Enabled = enabled
	})
}

func (r *CredentialRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.creds[id]; !ok {
		return storage.ErrCredentialNotFound
	}
	delete(r.creds, id)
	return nil
}

func (r *CredentialRepo) update(id string, fn func(*domain.Credential)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.creds[id]
	if !ok {
		return storage.ErrCredentialNotFound
	}
	fn(cred)
	cred.UpdatedAt = time.Now()
	return nil
}
