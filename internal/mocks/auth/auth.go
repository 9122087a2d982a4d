package auth

// Package auth contains simple hand-written test doubles for the session
// ports. These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	apperrors "github.com/quizforge/sessiond/internal/errors"
	"github.com/quizforge/sessiond/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityAdmin     = (*MockIdentityAdmin)(nil)
	_ ports.ProfileRepository = (*MemoryProfileRepo)(nil)
	_ ports.RevocationStore   = (*MemoryRevocationStore)(nil)
)

// MockIdentityAdmin simulates the identity provider's admin surface with
// deterministic token handling. Func fields override individual methods.
type MockIdentityAdmin struct {
	VerifyFunc       func(ctx context.Context, idToken string) (domainauth.TokenClaims, error)
	GetUserFunc      func(ctx context.Context, uid string) (domainauth.UserRecord, error)
	SetRoleClaimFunc func(ctx context.Context, uid string, role domainauth.Role) error

	mu             sync.Mutex
	users          map[string]domainauth.UserRecord
	tokens         map[string]domainauth.TokenClaims
	tokenSeq       int
	RoleClaimCalls int
	RevokeCalls    int
}

// NewMockIdentityAdmin creates an empty MockIdentityAdmin.
func NewMockIdentityAdmin() *MockIdentityAdmin {
	return &MockIdentityAdmin{
		users:  make(map[string]domainauth.UserRecord),
		tokens: make(map[string]domainauth.TokenClaims),
	}
}

// AddUser registers a provider record.
func (m *MockIdentityAdmin) AddUser(user domainauth.UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UID] = user
}

// RemoveUser deletes a provider record, simulating account deletion.
func (m *MockIdentityAdmin) RemoveUser(uid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, uid)
}

// IssueToken mints a fake identity token for a registered user and returns
// the opaque token string accepted by VerifyIDToken.
func (m *MockIdentityAdmin) IssueToken(uid string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[uid]
	if !ok {
		panic(fmt.Sprintf("mock identity: IssueToken for unknown uid %q", uid))
	}

	m.tokenSeq++
	token := fmt.Sprintf("mock-idtoken-%s-%d", uid, m.tokenSeq)
	now := time.Now()
	m.tokens[token] = domainauth.TokenClaims{
		UID:           user.UID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		DisplayName:   user.DisplayName,
		PhotoURL:      user.PhotoURL,
		Role:          user.Role,
		IssuedAt:      domainauth.NewTimestamp(now),
		ExpiresAt:     domainauth.NewTimestamp(now.Add(time.Hour)),
	}
	return token
}

func (m *MockIdentityAdmin) VerifyIDToken(ctx context.Context, idToken string) (domainauth.TokenClaims, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, idToken)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	claims, ok := m.tokens[idToken]
	if !ok {
		return domainauth.TokenClaims{}, apperrors.InvalidToken("auth/invalid-id-token", errors.New("unknown token"))
	}
	return claims, nil
}

func (m *MockIdentityAdmin) GetUser(ctx context.Context, uid string) (domainauth.UserRecord, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, uid)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[uid]
	if !ok {
		return domainauth.UserRecord{}, apperrors.PrincipalNotFound(uid)
	}
	return user, nil
}

func (m *MockIdentityAdmin) SetRoleClaim(ctx context.Context, uid string, role domainauth.Role) error {
	if m.SetRoleClaimFunc != nil {
		return m.SetRoleClaimFunc(ctx, uid, role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[uid]
	if !ok {
		return apperrors.PrincipalNotFound(uid)
	}
	user.Role = role
	m.users[uid] = user
	m.RoleClaimCalls++
	return nil
}

func (m *MockIdentityAdmin) RevokeSessions(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[uid]
	if !ok {
		return apperrors.PrincipalNotFound(uid)
	}
	user.TokensValidFrom = domainauth.NewTimestamp(time.Now())
	m.users[uid] = user
	m.RevokeCalls++
	return nil
}

// MemoryProfileRepo is an in-memory profile repository for unit tests.
type MemoryProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]domainauth.Profile
	// Now supplies timestamps; defaults to time.Now.
	Now func() time.Time
}

// NewMemoryProfileRepo creates a new in-memory profile repository.
func NewMemoryProfileRepo() *MemoryProfileRepo {
	return &MemoryProfileRepo{
		profiles: make(map[string]domainauth.Profile),
		Now:      time.Now,
	}
}

func (m *MemoryProfileRepo) Get(_ context.Context, uid string) (*domainauth.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return nil, apperrors.NotFound("profile not found: " + uid)
	}
	copied := p
	return &copied, nil
}

func (m *MemoryProfileRepo) EnsureOnLogin(_ context.Context, claims domainauth.TokenClaims) (*domainauth.Profile, error) {
	if claims.UID == "" {
		return nil, apperrors.Validation("uid is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := domainauth.NewTimestamp(m.Now())

	p, ok := m.profiles[claims.UID]
	if !ok {
		p = domainauth.Profile{
			UID:           claims.UID,
			Email:         claims.Email,
			DisplayName:   claims.DisplayName,
			PhotoURL:      claims.PhotoURL,
			Role:          domainauth.RoleUser,
			EmailVerified: claims.EmailVerified,
			CreatedAt:     now,
			LastLoginAt:   now,
		}
	} else {
		p.LastLoginAt = now
	}
	m.profiles[claims.UID] = p
	copied := p
	return &copied, nil
}

func (m *MemoryProfileRepo) SetRole(_ context.Context, uid string, role domainauth.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return apperrors.NotFound("profile not found: " + uid)
	}
	p.Role = role
	m.profiles[uid] = p
	return nil
}

// MemoryRevocationStore is an in-memory revocation watermark store.
type MemoryRevocationStore struct {
	mu         sync.Mutex
	watermarks map[string]time.Time
}

// NewMemoryRevocationStore creates a new in-memory revocation store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{watermarks: make(map[string]time.Time)}
}

func (m *MemoryRevocationStore) Revoke(_ context.Context, uid string, at time.Time) error {
	if uid == "" {
		return errors.New("uid cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watermarks[uid] = at
	return nil
}

func (m *MemoryRevocationStore) ValidFrom(_ context.Context, uid string) (domainauth.Timestamp, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.watermarks[uid]
	if !ok {
		return domainauth.Timestamp{}, nil
	}
	return domainauth.NewTimestamp(at), nil
}
