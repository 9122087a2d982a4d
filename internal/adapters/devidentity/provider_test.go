package devidentity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	apperrors "github.com/quizforge/sessiond/internal/errors"
	"github.com/quizforge/sessiond/internal/ports"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(Config{
		Accounts: []Account{
			{UID: "uid-alice", Email: "alice@example.com", Password: "correct-horse", DisplayName: "Alice"},
			{UID: "uid-bob", Email: "bob@example.com", Password: "hunter2", Role: domainauth.RoleAdmin},
		},
		FederatedUID: "uid-alice",
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func signInCategory(t *testing.T, err error) ports.SignInCategory {
	t.Helper()
	var sie *ports.SignInError
	require.ErrorAs(t, err, &sie)
	return sie.Category
}

func TestNewProvider_RejectsDuplicates(t *testing.T) {
	_, err := NewProvider(Config{Accounts: []Account{
		{UID: "u1", Email: "a@example.com"},
		{UID: "u1", Email: "b@example.com"},
	}})
	assert.Error(t, err)

	_, err = NewProvider(Config{Accounts: []Account{
		{UID: "u1", Email: "a@example.com"},
		{UID: "u2", Email: "a@example.com"},
	}})
	assert.Error(t, err)
}

func TestSignInWithPassword(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	cred, err := p.SignInWithPassword(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "uid-alice", cred.UID)
	assert.NotEmpty(t, cred.IDToken)

	change := <-p.StateChanges()
	assert.True(t, change.SignedIn)
	assert.Equal(t, "uid-alice", change.UID)

	claims, err := p.VerifyIDToken(ctx, cred.IDToken)
	require.NoError(t, err)
	assert.Equal(t, "uid-alice", claims.UID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestSignInWithPassword_Failures(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	_, err := p.SignInWithPassword(ctx, "nobody@example.com", "x")
	assert.Equal(t, ports.SignInInvalidCredentials, signInCategory(t, err))

	_, err = p.SignInWithPassword(ctx, "alice@example.com", "wrong")
	assert.Equal(t, ports.SignInInvalidCredentials, signInCategory(t, err))

	p.SetDisabled("uid-alice", true)
	_, err = p.SignInWithPassword(ctx, "alice@example.com", "correct-horse")
	assert.Equal(t, ports.SignInAccountDisabled, signInCategory(t, err))
}

func TestSignInWithPassword_RateLimitsAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	for i := 0; i < 5; i++ {
		_, err := p.SignInWithPassword(ctx, "alice@example.com", "wrong")
		assert.Equal(t, ports.SignInInvalidCredentials, signInCategory(t, err))
	}

	// Even the right password is now throttled.
	_, err := p.SignInWithPassword(ctx, "alice@example.com", "correct-horse")
	assert.Equal(t, ports.SignInRateLimited, signInCategory(t, err))
}

func TestSignInWithOAuth(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	cred, err := p.SignInWithOAuth(ctx, "google")
	require.NoError(t, err)
	assert.Equal(t, "uid-alice", cred.UID)

	_, err = p.SignInWithOAuth(ctx, "github")
	assert.Equal(t, ports.SignInCancelled, signInCategory(t, err))
}

func TestSignOutEmitsStateChange(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	_, err := p.SignInWithPassword(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)
	<-p.StateChanges()

	require.NoError(t, p.SignOut(ctx))
	change := <-p.StateChanges()
	assert.False(t, change.SignedIn)
	assert.Equal(t, "uid-alice", change.UID)

	// Idempotent; no extra event.
	require.NoError(t, p.SignOut(ctx))
	select {
	case extra := <-p.StateChanges():
		t.Fatalf("unexpected state change %+v", extra)
	default:
	}
}

func TestRefreshToken(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	_, err := p.RefreshToken(ctx, true)
	assert.True(t, errors.Is(err, ErrNoPrincipal))

	first, err := p.SignInWithPassword(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)

	second, err := p.RefreshToken(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "uid-alice", second.UID)
	assert.NotEqual(t, first.IDToken, second.IDToken)
}

func TestVerifyIDToken_Failures(t *testing.T) {
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p, err := NewProvider(Config{
		Accounts: []Account{{UID: "uid-alice", Email: "alice@example.com", Password: "pw"}},
		TokenTTL: time.Hour,
		Clock:    func() time.Time { return now },
	})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.VerifyIDToken(ctx, "never-issued")
	assert.True(t, apperrors.IsInvalidToken(err))
	assert.Equal(t, "auth/invalid-id-token", apperrors.GetProviderCode(err))

	cred, err := p.SignInWithPassword(ctx, "alice@example.com", "pw")
	require.NoError(t, err)

	now = now.Add(time.Hour + time.Minute)
	_, err = p.VerifyIDToken(ctx, cred.IDToken)
	assert.Equal(t, "auth/id-token-expired", apperrors.GetProviderCode(err))

	now = now.Add(-time.Hour) // token valid again
	p.SetDisabled("uid-alice", true)
	_, err = p.VerifyIDToken(ctx, cred.IDToken)
	assert.Equal(t, "auth/user-disabled", apperrors.GetProviderCode(err))
}

func TestTokenFreezesClaimsAtMint(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	cred, err := p.SignInWithPassword(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, p.SetRoleClaim(ctx, "uid-alice", domainauth.RoleAdmin))

	claims, err := p.VerifyIDToken(ctx, cred.IDToken)
	require.NoError(t, err)
	assert.Empty(t, claims.Role, "old token keeps the claims it was minted with")

	fresh, err := p.RefreshToken(ctx, true)
	require.NoError(t, err)
	claims, err = p.VerifyIDToken(ctx, fresh.IDToken)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, claims.Role)
}

func TestRevokeSessionsMovesWatermark(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	record, err := p.GetUser(ctx, "uid-alice")
	require.NoError(t, err)
	assert.True(t, record.TokensValidFrom.IsZero())

	require.NoError(t, p.RevokeSessions(ctx, "uid-alice"))
	record, err = p.GetUser(ctx, "uid-alice")
	require.NoError(t, err)
	assert.False(t, record.TokensValidFrom.IsZero())

	err = p.RevokeSessions(ctx, "uid-ghost")
	assert.True(t, apperrors.IsPrincipalNotFound(err))
}
