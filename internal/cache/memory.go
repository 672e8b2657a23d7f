package cache

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/extractor/internal/core/domain"
)

// sweepThreshold is the entry count at which expired entries are swept.
const sweepThreshold = 5000

type entry struct {
	value     *domain.ExtractionResult
	expiresAt time.Time
}

// Memory is the in-process cache backend.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the entry for key if it exists and has not expired. Expired
// entries are dropped lazily.
func (m *Memory) Get(_ context.Context, key string) (*domain.ExtractionResult, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key for ttl.
func (m *Memory) Set(_ context.Context, key string, value *domain.ExtractionResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) > sweepThreshold {
		for k, e := range m.entries {
			if now.After(e.expiresAt) {
				delete(m.entries, k)
			}
		}
	}

	m.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

// Clear drops every entry.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]entry)
	return nil
}

// Size returns the number of live entries, for tests and metrics.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
