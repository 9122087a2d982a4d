package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	"github.com/quizforge/sessiond/internal/ports"
)

// Storage keys for the client caches.
const (
	tokenCacheKey   = "sessiond:client:token"
	profileCacheKey = "sessiond:client:profile"
)

// Staleness policy: a cached token expiring at T is due for refresh at
// T - threshold - [0, jitter). The jitter spreads refresh across tabs so
// they do not stampede the provider at the same instant.
const (
	DefaultRefreshThreshold = 15 * time.Minute
	DefaultRefreshJitter    = time.Minute
)

// TokenCacheEntry is the cached identity token plus its owner.
type TokenCacheEntry struct {
	UID       string               `json:"uid"`
	Token     string               `json:"token"`
	ExpiresAt domainauth.Timestamp `json:"expiresAt"`
}

// ProfileCacheEntry caches profile fields alongside the token cache.
type ProfileCacheEntry struct {
	Profile     domainauth.Profile   `json:"profile"`
	LastUpdated domainauth.Timestamp `json:"lastUpdated"`
}

// TokenStore caches the current identity token in client storage. A missing
// or corrupt cache entry is never an error; it just means "no cached token".
type TokenStore struct {
	kv        ports.KVStore
	threshold time.Duration
	jitter    time.Duration

	// Clock and Jitter are overridable for tests.
	Clock      func() time.Time
	JitterFunc func() time.Duration
}

// TokenStoreOptions configures a TokenStore. Zero durations take the
// default staleness policy.
type TokenStoreOptions struct {
	KV ports.KVStore

	RefreshThreshold time.Duration
	RefreshJitter    time.Duration
}

// NewTokenStore creates a TokenStore over the given storage.
func NewTokenStore(opts TokenStoreOptions) *TokenStore {
	threshold := opts.RefreshThreshold
	if threshold <= 0 {
		threshold = DefaultRefreshThreshold
	}
	jitter := opts.RefreshJitter
	if jitter <= 0 {
		jitter = DefaultRefreshJitter
	}
	s := &TokenStore{
		kv:        opts.KV,
		threshold: threshold,
		jitter:    jitter,
		Clock:     time.Now,
	}
	s.JitterFunc = func() time.Duration {
		return time.Duration(rand.Int63n(int64(s.jitter)))
	}
	return s
}

// Save caches the token entry. Storage failure is returned but callers may
// treat it as soft.
func (s *TokenStore) Save(ctx context.Context, e TokenCacheEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode token cache: %w", err)
	}
	ttl := time.Duration(0)
	if !e.ExpiresAt.IsZero() {
		ttl = e.ExpiresAt.Time().Sub(s.Clock())
	}
	return s.kv.Set(ctx, tokenCacheKey, data, ttl)
}

// Load returns the cached entry, or nil when absent, corrupt, or the storage
// is unavailable.
func (s *TokenStore) Load(ctx context.Context) *TokenCacheEntry {
	data, err := s.kv.Get(ctx, tokenCacheKey)
	if err != nil || data == nil {
		return nil
	}
	var e TokenCacheEntry
	if err := json.Unmarshal(data, &e); err != nil || e.Token == "" {
		return nil
	}
	return &e
}

// Clear drops the cached token and profile.
func (s *TokenStore) Clear(ctx context.Context) {
	_, _ = s.kv.Delete(ctx, tokenCacheKey)
	_, _ = s.kv.Delete(ctx, profileCacheKey)
}

// IsStale reports whether the cached token is due for refresh. The jitter is
// sampled per call: the entry becomes refreshable anywhere in the minute
// before the hard threshold, and is always refreshable past it.
func (s *TokenStore) IsStale(e *TokenCacheEntry) bool {
	if e == nil || e.ExpiresAt.IsZero() {
		return true
	}
	deadline := e.ExpiresAt.Time().Add(-s.threshold - s.JitterFunc())
	return !s.Clock().Before(deadline)
}

// SaveProfile caches profile fields for optimistic rendering while a session
// check is in flight.
func (s *TokenStore) SaveProfile(ctx context.Context, p domainauth.Profile) error {
	data, err := json.Marshal(ProfileCacheEntry{
		Profile:     p,
		LastUpdated: domainauth.NewTimestamp(s.Clock()),
	})
	if err != nil {
		return fmt.Errorf("encode profile cache: %w", err)
	}
	return s.kv.Set(ctx, profileCacheKey, data, 0)
}

// LoadProfile returns the cached profile entry, or nil when absent or
// corrupt.
func (s *TokenStore) LoadProfile(ctx context.Context) *ProfileCacheEntry {
	data, err := s.kv.Get(ctx, profileCacheKey)
	if err != nil || data == nil {
		return nil
	}
	var e ProfileCacheEntry
	if err := json.Unmarshal(data, &e); err != nil || e.Profile.UID == "" {
		return nil
	}
	return &e
}
