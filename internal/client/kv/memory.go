// Package kv provides an in-process key-value store with TTL semantics.
// It backs the client-side token cache and session lock in single-process
// deployments and in tests; shared deployments use the Redis adapter.
package kv

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/quizforge/sessiond/internal/ports"
)

// ErrUnavailable is returned when the store has been marked unavailable.
// Callers are expected to fall through rather than fail hard.
var ErrUnavailable = errors.New("kv: storage unavailable")

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Memory is an in-memory ports.KVStore. The availability toggle models
// client storage being disabled at runtime.
type Memory struct {
	mu          sync.Mutex
	entries     map[string]entry
	unavailable bool

	// Clock overrides the time source for tests.
	Clock func() time.Time
}

var _ ports.KVStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), Clock: time.Now}
}

// SetAvailable toggles availability. While unavailable every operation
// returns ErrUnavailable.
func (m *Memory) SetAvailable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = !ok
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return nil, ErrUnavailable
	}

	e, ok := m.entries[key]
	if !ok || m.expired(e) {
		delete(m.entries, key)
		return nil, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return ErrUnavailable
	}

	m.entries[key] = m.newEntry(value, ttl)
	return nil
}

func (m *Memory) SetIfNotExists(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return false, ErrUnavailable
	}

	if e, ok := m.entries[key]; ok && !m.expired(e) {
		return false, nil
	}
	m.entries[key] = m.newEntry(value, ttl)
	return true, nil
}

func (m *Memory) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return false, ErrUnavailable
	}

	e, ok := m.entries[key]
	delete(m.entries, key)
	return ok && !m.expired(e), nil
}

func (m *Memory) newEntry(value []byte, ttl time.Duration) entry {
	copied := make([]byte, len(value))
	copy(copied, value)
	e := entry{value: copied}
	if ttl > 0 {
		e.expiresAt = m.Clock().Add(ttl)
	}
	return e
}

func (m *Memory) expired(e entry) bool {
	return !e.expiresAt.IsZero() && m.Clock().After(e.expiresAt)
}
