package ports

// Package ports defines interfaces (hexagonal ports) for the session core.
// Implementations live in internal/adapters and internal/data; orchestration
// in internal/service and internal/client.

import (
	"context"
	"time"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
)

// IdentityAdmin is the server-side surface of the identity provider: token
// verification, principal lookup, and custom-claim management. The session
// core never mints identity tokens; it only consumes them.
type IdentityAdmin interface {
	// VerifyIDToken checks signature, expiry, and audience of a
	// freshly-minted identity token and returns its claims.
	VerifyIDToken(ctx context.Context, idToken string) (domainauth.TokenClaims, error)

	// GetUser returns the provider's record for a principal.
	// Returns a PrincipalNotFound error when the account no longer exists.
	GetUser(ctx context.Context, uid string) (domainauth.UserRecord, error)

	// SetRoleClaim updates the role custom claim on the provider record.
	// Implementations must be idempotent; callers skip the write when the
	// claim already matches.
	SetRoleClaim(ctx context.Context, uid string, role domainauth.Role) error

	// RevokeSessions invalidates all outstanding sessions for a principal.
	RevokeSessions(ctx context.Context, uid string) error
}

// Credential is a live client-side identity: the current token and who it
// belongs to.
type Credential struct {
	UID       string
	IDToken   string
	ExpiresAt domainauth.Timestamp
}

// StateChange is a push notification from the identity provider about the
// signed-in principal of this process.
type StateChange struct {
	UID      string
	SignedIn bool
}

// IdentityClient is the client-side surface of the identity provider SDK.
// The production SDK lives outside this repository; the dev adapter and the
// test doubles implement this port.
type IdentityClient interface {
	// SignInWithPassword authenticates with email/password credentials.
	SignInWithPassword(ctx context.Context, email, password string) (Credential, error)

	// SignInWithOAuth authenticates via a federated provider (e.g. "google").
	SignInWithOAuth(ctx context.Context, provider string) (Credential, error)

	// SignOut ends the provider-side client session.
	SignOut(ctx context.Context) error

	// RefreshToken returns the current token, fetching a fresh one from the
	// provider when force is true or the cached one is near expiry.
	RefreshToken(ctx context.Context, force bool) (Credential, error)

	// StateChanges delivers sign-in/sign-out notifications. The channel is
	// closed when the client is closed.
	StateChanges() <-chan StateChange
}

// SignInCategory is the user-facing classification of a provider sign-in
// failure. Providers map their own codes into these; callers must never see
// raw provider errors.
type SignInCategory string

const (
	SignInInvalidCredentials    SignInCategory = "invalid_credentials"
	SignInAccountDisabled       SignInCategory = "account_disabled"
	SignInRateLimited           SignInCategory = "rate_limited"
	SignInCancelled             SignInCategory = "cancelled"
	SignInConflictingCredential SignInCategory = "conflicting_credential"
	SignInUnknown               SignInCategory = "unknown"
)

// SignInError carries the category plus the provider's raw code for logs.
type SignInError struct {
	Category SignInCategory
	Code     string
	Cause    error
}

func (e *SignInError) Error() string {
	if e.Code != "" {
		return string(e.Category) + " (" + e.Code + ")"
	}
	return string(e.Category)
}

func (e *SignInError) Unwrap() error { return e.Cause }

// ProfileRepository persists application profile records keyed by uid.
type ProfileRepository interface {
	// Get returns the profile for a uid, or a NotFound error.
	Get(ctx context.Context, uid string) (*domainauth.Profile, error)

	// EnsureOnLogin creates the profile with the default user role when
	// absent, or updates only the last-login timestamp when present. It
	// never overwrites existing application fields.
	EnsureOnLogin(ctx context.Context, claims domainauth.TokenClaims) (*domainauth.Profile, error)

	// SetRole updates the profile's role.
	SetRole(ctx context.Context, uid string, role domainauth.Role) error
}

// KVStore is a shared key-value store with TTL semantics. It backs the
// session lock and the token cache. A store may become unavailable at
// runtime; callers fall through rather than fail (availability over strict
// mutual exclusion).
type KVStore interface {
	// Get returns the value for key, or nil when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL (0 = no expiry).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetIfNotExists atomically sets key only when absent. Returns whether
	// the value was written.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes key; reports whether anything was deleted.
	Delete(ctx context.Context, key string) (bool, error)
}

// RevocationStore tracks the tokens-valid-from watermark per principal.
// A session artifact issued before the watermark is revoked.
type RevocationStore interface {
	// Revoke moves the watermark for uid to the given instant.
	Revoke(ctx context.Context, uid string, at time.Time) error

	// ValidFrom returns the watermark for uid; the zero Timestamp means no
	// revocation has been recorded.
	ValidFrom(ctx context.Context, uid string) (domainauth.Timestamp, error)
}
