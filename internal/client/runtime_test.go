package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/sessiond/config"
	"github.com/quizforge/sessiond/internal/adapters/devidentity"
	"github.com/quizforge/sessiond/internal/client/kv"
)

func newRuntimeIdentity(t *testing.T) *devidentity.Provider {
	t.Helper()
	provider, err := devidentity.NewProvider(devidentity.Config{
		Accounts: []devidentity.Account{{UID: "uid-1", Email: "u1@example.com", Password: "pw"}},
	})
	require.NoError(t, err)
	t.Cleanup(provider.Close)
	return provider
}

func TestNewRuntime_WiresConfig(t *testing.T) {
	cfg := config.ClientConfig{
		RefreshInterval:  45 * time.Minute,
		RefreshThreshold: 20 * time.Minute,
		RefreshJitter:    30 * time.Second,
		LockTTL:          7 * time.Second,
		LockRetries:      5,
		CreateTimeout:    4 * time.Second,
		CheckTimeout:     2 * time.Second,
		DeleteTimeout:    time.Second,
	}

	store, err := NewRuntime(RuntimeOptions{
		Config:   cfg,
		BaseURL:  "http://localhost:8080",
		Storage:  kv.NewMemory(),
		Identity: newRuntimeIdentity(t),
	})
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, store.refreshInterval)
	assert.Equal(t, 20*time.Minute, store.tokens.threshold)
	assert.Equal(t, 30*time.Second, store.tokens.jitter)
	assert.Equal(t, 7*time.Second, store.lock.ttl)
	assert.Equal(t, 5, store.lock.retries)
	assert.Equal(t, 4*time.Second, store.sessions.createTimeout)
	assert.Equal(t, 2*time.Second, store.sessions.checkTimeout)
	assert.Equal(t, time.Second, store.sessions.deleteTimeout)
}

func TestNewRuntime_ZeroConfigTakesDefaults(t *testing.T) {
	store, err := NewRuntime(RuntimeOptions{
		BaseURL:  "http://localhost:8080",
		Storage:  kv.NewMemory(),
		Identity: newRuntimeIdentity(t),
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultRefreshInterval, store.refreshInterval)
	assert.Equal(t, DefaultRefreshThreshold, store.tokens.threshold)
	assert.Equal(t, DefaultRefreshJitter, store.tokens.jitter)
	assert.Equal(t, DefaultLockTTL, store.lock.ttl)
	assert.Equal(t, DefaultLockRetries, store.lock.retries)
	assert.Equal(t, DefaultCreateTimeout, store.sessions.createTimeout)
	assert.Equal(t, DefaultCheckTimeout, store.sessions.checkTimeout)
	assert.Equal(t, DefaultDeleteTimeout, store.sessions.deleteTimeout)
}

func TestNewRuntime_RequiresStorageAndIdentity(t *testing.T) {
	_, err := NewRuntime(RuntimeOptions{BaseURL: "http://localhost:8080"})
	require.Error(t, err)

	_, err = NewRuntime(RuntimeOptions{
		BaseURL: "http://localhost:8080",
		Storage: kv.NewMemory(),
	})
	require.Error(t, err)
}
