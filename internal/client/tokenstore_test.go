package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/sessiond/internal/client/kv"
	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
)

func newTestTokenStore(now *time.Time) (*TokenStore, *kv.Memory) {
	mem := kv.NewMemory()
	mem.Clock = func() time.Time { return *now }
	s := NewTokenStore(TokenStoreOptions{KV: mem})
	s.Clock = func() time.Time { return *now }
	return s, mem
}

func TestTokenStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newTestTokenStore(&now)

	entry := TokenCacheEntry{
		UID:       "uid-1",
		Token:     "idtoken-abc",
		ExpiresAt: domainauth.NewTimestamp(now.Add(time.Hour)),
	}
	require.NoError(t, s.Save(ctx, entry))

	got := s.Load(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "uid-1", got.UID)
	assert.Equal(t, "idtoken-abc", got.Token)
	assert.Equal(t, entry.ExpiresAt.Unix(), got.ExpiresAt.Unix())
}

func TestTokenStore_LoadMissingOrCorrupt(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s, mem := newTestTokenStore(&now)

	assert.Nil(t, s.Load(ctx), "empty cache")

	require.NoError(t, mem.Set(ctx, "sessiond:client:token", []byte("{not json"), 0))
	assert.Nil(t, s.Load(ctx), "corrupt cache")

	require.NoError(t, mem.Set(ctx, "sessiond:client:token", []byte(`{"uid":"u","token":""}`), 0))
	assert.Nil(t, s.Load(ctx), "empty token")

	mem.SetAvailable(false)
	assert.Nil(t, s.Load(ctx), "storage unavailable")
}

func TestTokenStore_CacheEvictsAtTokenExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newTestTokenStore(&now)

	require.NoError(t, s.Save(ctx, TokenCacheEntry{
		UID:       "uid-1",
		Token:     "tok",
		ExpiresAt: domainauth.NewTimestamp(now.Add(time.Hour)),
	}))

	now = now.Add(time.Hour + time.Second)
	assert.Nil(t, s.Load(ctx))
}

func TestTokenStore_Clear(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newTestTokenStore(&now)

	require.NoError(t, s.Save(ctx, TokenCacheEntry{
		UID:       "uid-1",
		Token:     "tok",
		ExpiresAt: domainauth.NewTimestamp(now.Add(time.Hour)),
	}))
	require.NoError(t, s.SaveProfile(ctx, domainauth.Profile{UID: "uid-1", Role: domainauth.RoleUser}))

	s.Clear(ctx)
	assert.Nil(t, s.Load(ctx))
	assert.Nil(t, s.LoadProfile(ctx))
}

// Staleness contract: with expiry at T, the entry must never be stale before
// T-threshold-jitterMax and must always be stale at or after T-threshold.
func TestTokenStore_IsStaleBounds(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newTestTokenStore(&now)

	expiry := now.Add(time.Hour)
	entry := &TokenCacheEntry{
		UID:       "uid-1",
		Token:     "tok",
		ExpiresAt: domainauth.NewTimestamp(expiry),
	}

	tests := []struct {
		name   string
		jitter time.Duration
		at     time.Time
		stale  bool
	}{
		{"fresh well before window", 0, expiry.Add(-30 * time.Minute), false},
		{"just before hard threshold, zero jitter", 0, expiry.Add(-15*time.Minute - time.Millisecond), false},
		{"at hard threshold, zero jitter", 0, expiry.Add(-15 * time.Minute), true},
		{"inside jitter window, max jitter", 59 * time.Second, expiry.Add(-15*time.Minute - 59*time.Second), true},
		{"before jitter window, max jitter", 59 * time.Second, expiry.Add(-16 * time.Minute), false},
		{"past expiry", 0, expiry.Add(time.Minute), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s.JitterFunc = func() time.Duration { return tc.jitter }
			now = tc.at
			assert.Equal(t, tc.stale, s.IsStale(entry))
		})
	}
}

func TestTokenStore_IsStaleHonorsConfiguredThreshold(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mem := kv.NewMemory()
	mem.Clock = func() time.Time { return now }
	s := NewTokenStore(TokenStoreOptions{
		KV:               mem,
		RefreshThreshold: 20 * time.Minute,
		RefreshJitter:    30 * time.Second,
	})
	s.Clock = func() time.Time { return now }
	s.JitterFunc = func() time.Duration { return 0 }

	expiry := now.Add(time.Hour)
	entry := &TokenCacheEntry{UID: "u", Token: "tok", ExpiresAt: domainauth.NewTimestamp(expiry)}

	now = expiry.Add(-20*time.Minute - time.Millisecond)
	assert.False(t, s.IsStale(entry))
	now = expiry.Add(-20 * time.Minute)
	assert.True(t, s.IsStale(entry))
}

func TestTokenStore_IsStaleSampledJitterStaysInWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newTestTokenStore(&now)

	expiry := now.Add(time.Hour)
	entry := &TokenCacheEntry{UID: "u", Token: "tok", ExpiresAt: domainauth.NewTimestamp(expiry)}

	// Before the widest possible window the default sampled jitter can never
	// flag the entry stale; past the hard threshold it always must.
	now = expiry.Add(-s.threshold - s.jitter)
	for range 200 {
		assert.False(t, s.IsStale(entry))
	}
	now = expiry.Add(-s.threshold)
	for range 200 {
		assert.True(t, s.IsStale(entry))
	}
}

func TestTokenStore_IsStaleNilAndZeroExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newTestTokenStore(&now)

	assert.True(t, s.IsStale(nil))
	assert.True(t, s.IsStale(&TokenCacheEntry{UID: "u", Token: "tok"}))
}

func TestTokenStore_ProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _ := newTestTokenStore(&now)

	require.NoError(t, s.SaveProfile(ctx, domainauth.Profile{
		UID:         "uid-1",
		Email:       "a@example.com",
		DisplayName: "Ada",
		Role:        domainauth.RoleAdmin,
	}))

	got := s.LoadProfile(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "uid-1", got.Profile.UID)
	assert.Equal(t, domainauth.RoleAdmin, got.Profile.Role)
	assert.Equal(t, now.Unix(), got.LastUpdated.Unix())
}
