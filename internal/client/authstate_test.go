package client

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/sessiond/internal/adapters/devidentity"
	"github.com/quizforge/sessiond/internal/client/kv"
	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	httpx "github.com/quizforge/sessiond/internal/http"
	mocksauth "github.com/quizforge/sessiond/internal/mocks/auth"
	"github.com/quizforge/sessiond/internal/ports"
	"github.com/quizforge/sessiond/internal/service"
)

// authFixture wires the full client stack against a real session server:
// dev identity provider, session endpoints over httptest, cookie-jar client,
// token cache, lock, and the auth state store.
type authFixture struct {
	provider    *devidentity.Provider
	store       *Store
	sessions    *SessionClient
	tokens      *TokenStore
	profiles    *mocksauth.MemoryProfileRepo
	revocations *mocksauth.MemoryRevocationStore
	srv         *httptest.Server
}

func newAuthFixture(t *testing.T, opts ...func(*StoreOptions)) *authFixture {
	t.Helper()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider, err := devidentity.NewProvider(devidentity.Config{
		Accounts: []devidentity.Account{
			{UID: "uid-alice", Email: "alice@example.com", Password: "correct-horse", DisplayName: "Alice"},
			{UID: "uid-bob", Email: "bob@example.com", Password: "hunter2", Role: domainauth.RoleAdmin},
		},
		FederatedUID: "uid-alice",
	})
	require.NoError(t, err)
	t.Cleanup(provider.Close)

	codec, err := service.NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), 14*24*time.Hour)
	require.NoError(t, err)

	profiles := mocksauth.NewMemoryProfileRepo()
	revocations := mocksauth.NewMemoryRevocationStore()
	svc := service.NewSessionService(service.SessionServiceOptions{
		Identity:    provider,
		Profiles:    profiles,
		Revocations: revocations,
		Codec:       codec,
		Logger:      discard,
	})

	srv := httptest.NewServer(httpx.NewRouter(httpx.RouterServices{
		Session: svc,
		Cookies: httpx.CookiePolicy{MaxAge: 14 * 24 * time.Hour},
		Logger:  discard,
	}))
	t.Cleanup(srv.Close)

	sessions, err := NewSessionClient(SessionClientOptions{BaseURL: srv.URL, Logger: discard})
	require.NoError(t, err)

	mem := kv.NewMemory()
	tokens := NewTokenStore(TokenStoreOptions{KV: mem})
	lock := NewLock(LockOptions{KV: mem, Logger: discard})

	storeOpts := StoreOptions{
		Identity: provider,
		Sessions: sessions,
		Tokens:   tokens,
		Lock:     lock,
		Logger:   discard,
	}
	for _, o := range opts {
		o(&storeOpts)
	}
	store := NewStore(storeOpts)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(store.Teardown)

	return &authFixture{
		provider:    provider,
		store:       store,
		sessions:    sessions,
		tokens:      tokens,
		profiles:    profiles,
		revocations: revocations,
		srv:         srv,
	}
}

func waitForStatus(t *testing.T, store *Store, want Status) Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if snap := store.Snapshot(); snap.Status == want {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status never became %q (now %q)", want, store.Snapshot().Status)
	return Snapshot{}
}

// Fresh login: provider sign-in, server session, cookies, profile creation.
func TestStore_LoginEstablishesServerSession(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	require.NoError(t, f.store.Login(ctx, "alice@example.com", "correct-horse"))

	snap := waitForStatus(t, f.store, StatusAuthenticated)
	assert.Equal(t, "uid-alice", snap.UID)
	assert.Equal(t, domainauth.RoleUser, snap.Role)

	result, err := f.sessions.CheckSession(ctx)
	require.NoError(t, err)
	require.True(t, result.Authenticated)
	assert.Equal(t, "uid-alice", result.User.UID)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, domainauth.RoleUser, result.User.Role)

	profile, err := f.profiles.Get(ctx, "uid-alice")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUser, profile.Role)

	cached := f.tokens.Load(ctx)
	require.NotNil(t, cached)
	assert.Equal(t, "uid-alice", cached.UID)
}

func TestStore_LoginWithGoogle(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	require.NoError(t, f.store.LoginWithGoogle(ctx))
	snap := waitForStatus(t, f.store, StatusAuthenticated)
	assert.Equal(t, "uid-alice", snap.UID)
}

func TestStore_LoginSurfacesProviderCategory(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	err := f.store.Login(ctx, "alice@example.com", "wrong-password")
	var sie *ports.SignInError
	require.ErrorAs(t, err, &sie)
	assert.Equal(t, ports.SignInInvalidCredentials, sie.Category)
	assert.Equal(t, StatusLoading, f.store.Snapshot().Status, "failed sign-in is not a state transition")
}

// Login is only complete once the server session exists; a dead session
// endpoint fails the whole login even though the provider accepted the
// credentials.
func TestStore_LoginFailsWithoutServerSession(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.srv.Close()

	err := f.store.Login(ctx, "alice@example.com", "correct-horse")
	require.Error(t, err)
	assert.NotEqual(t, StatusAuthenticated, f.store.Snapshot().Status)
	assert.Nil(t, f.tokens.Load(ctx))
}

// Revocation invalidates the outstanding artifact; the next explicit login
// round trip recovers with a fresh one.
func TestStore_RevocationInvalidatesArtifact(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	require.NoError(t, f.store.Login(ctx, "alice@example.com", "correct-horse"))
	waitForStatus(t, f.store, StatusAuthenticated)

	// Admin-side revocation: watermark strictly after the artifact's iat.
	require.NoError(t, f.revocations.Revoke(ctx, "uid-alice", time.Now().Add(2*time.Second)))

	result, err := f.sessions.CheckSession(ctx)
	require.NoError(t, err)
	assert.False(t, result.Authenticated)
	assert.Equal(t, domainauth.ReasonInvalidCookie, result.Reason)

	// The failed check cleared the cookies server-side.
	result, err = f.sessions.CheckSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, domainauth.ReasonNoCookie, result.Reason)
}

// Provider signed out while the server cookie is still valid: the store must
// proactively clear the server session so it never outlives client state.
func TestStore_ReconcilesZombieServerSession(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	require.NoError(t, f.store.Login(ctx, "alice@example.com", "correct-horse"))
	waitForStatus(t, f.store, StatusAuthenticated)

	require.NoError(t, f.provider.SignOut(ctx))

	snap := waitForStatus(t, f.store, StatusUnauthenticated)
	require.NotNil(t, snap.Reconcile)
	assert.False(t, snap.Reconcile.InSync)
	assert.Equal(t, domainauth.SideServer, snap.Reconcile.Corrected)

	result, err := f.sessions.CheckSession(ctx)
	require.NoError(t, err)
	assert.False(t, result.Authenticated)
	assert.Equal(t, domainauth.ReasonNoCookie, result.Reason, "server session must be gone")
	assert.Nil(t, f.tokens.Load(ctx))
}

// Logout clears server first, then provider, then local state.
func TestStore_Logout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	require.NoError(t, f.store.Login(ctx, "alice@example.com", "correct-horse"))
	waitForStatus(t, f.store, StatusAuthenticated)

	require.NoError(t, f.store.Logout(ctx))
	assert.Equal(t, StatusUnauthenticated, f.store.Snapshot().Status)
	assert.Nil(t, f.tokens.Load(ctx))

	result, err := f.sessions.CheckSession(ctx)
	require.NoError(t, err)
	assert.False(t, result.Authenticated)

	_, err = f.provider.RefreshToken(ctx, true)
	assert.ErrorIs(t, err, devidentity.ErrNoPrincipal)
}

// The periodic refresh mints a fresh identity token while authenticated.
func TestStore_PeriodicRefresh(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, func(o *StoreOptions) {
		o.RefreshInterval = 30 * time.Millisecond
	})

	require.NoError(t, f.store.Login(ctx, "alice@example.com", "correct-horse"))
	waitForStatus(t, f.store, StatusAuthenticated)

	initial := f.tokens.Load(ctx)
	require.NotNil(t, initial)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cached := f.tokens.Load(ctx); cached != nil && cached.Token != initial.Token {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("token cache never rotated")
}

func TestStore_AdminRoleFlowsThrough(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	require.NoError(t, f.store.Login(ctx, "bob@example.com", "hunter2"))
	snap := waitForStatus(t, f.store, StatusAuthenticated)
	assert.Equal(t, domainauth.RoleAdmin, snap.Role)
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	ch, cancel := f.store.Subscribe()
	defer cancel()

	require.NoError(t, f.store.Login(ctx, "alice@example.com", "correct-horse"))

	select {
	case snap := <-ch:
		assert.Equal(t, StatusAuthenticated, snap.Status)
		assert.Equal(t, "uid-alice", snap.UID)
	case <-time.After(3 * time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestStore_WaitUntilResolved(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)

	// Nothing has happened yet; the wait times out unresolved, offering the
	// cached principal for optimistic rendering.
	require.NoError(t, f.tokens.Save(ctx, TokenCacheEntry{
		UID:       "uid-alice",
		Token:     "stale-token",
		ExpiresAt: domainauth.NewTimestamp(time.Now().Add(time.Hour)),
	}))
	outcome := f.store.WaitUntilResolved(ctx, 20*time.Millisecond)
	assert.Equal(t, ResolveTimedOut, outcome.State)
	assert.Equal(t, "uid-alice", outcome.CachedUID)

	require.NoError(t, f.store.Login(ctx, "alice@example.com", "correct-horse"))
	outcome = f.store.WaitUntilResolved(ctx, 3*time.Second)
	assert.Equal(t, ResolveResolved, outcome.State)
	assert.Equal(t, StatusAuthenticated, outcome.Snapshot.Status)
}

func TestStore_InitTwiceFails(t *testing.T) {
	f := newAuthFixture(t)
	assert.Error(t, f.store.Init(context.Background()))
}
