package devidentity

// Package devidentity is an in-process identity provider for local
// development and end-to-end tests. It implements both the admin surface
// (token verification, principal records, custom claims) and the client SDK
// surface (sign-in flows, token refresh, state-change notifications), so a
// full login round trip works without any external provider.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	apperrors "github.com/quizforge/sessiond/internal/errors"
	"github.com/quizforge/sessiond/internal/ports"
)

// Account seeds a dev principal.
type Account struct {
	UID         string
	Email       string
	Password    string
	DisplayName string
	PhotoURL    string
	Role        domainauth.Role // custom claim; empty means never set
	Disabled    bool
}

// Config controls the dev provider.
type Config struct {
	Accounts []Account

	// FederatedUID is the account the OAuth flow signs in as. Empty means
	// the flow is treated as cancelled.
	FederatedUID string

	TokenTTL          time.Duration // default 1h
	MaxFailedAttempts int           // default 5, then rate_limited

	Clock func() time.Time
}

type account struct {
	Account
	tokensValidFrom domainauth.Timestamp
}

// issuedToken freezes the claims at mint time; later claim changes only show
// up on the next refresh, matching real provider behavior.
type issuedToken struct {
	claims domainauth.TokenClaims
}

// Provider is the in-process identity provider. Safe for concurrent use.
type Provider struct {
	tokenTTL  time.Duration
	maxFailed int
	clock     func() time.Time
	federated string

	mu       sync.Mutex
	accounts map[string]*account
	byEmail  map[string]string
	tokens   map[string]issuedToken
	failed   map[string]int
	current  string // signed-in uid, empty when signed out
	closed   bool

	changes chan ports.StateChange
}

var (
	_ ports.IdentityAdmin  = (*Provider)(nil)
	_ ports.IdentityClient = (*Provider)(nil)
)

// ErrNoPrincipal is returned by RefreshToken when nobody is signed in.
var ErrNoPrincipal = errors.New("devidentity: no signed-in principal")

// NewProvider constructs a Provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	maxFailed := cfg.MaxFailedAttempts
	if maxFailed <= 0 {
		maxFailed = 5
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	p := &Provider{
		tokenTTL:  ttl,
		maxFailed: maxFailed,
		clock:     clock,
		federated: cfg.FederatedUID,
		accounts:  make(map[string]*account),
		byEmail:   make(map[string]string),
		tokens:    make(map[string]issuedToken),
		failed:    make(map[string]int),
		changes:   make(chan ports.StateChange, 16),
	}
	for _, a := range cfg.Accounts {
		if err := p.AddAccount(a); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// AddAccount registers a principal. UID and Email must be unique.
func (p *Provider) AddAccount(a Account) error {
	if a.UID == "" || a.Email == "" {
		return errors.New("devidentity: account needs uid and email")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[a.UID]; ok {
		return fmt.Errorf("devidentity: duplicate uid %q", a.UID)
	}
	if _, ok := p.byEmail[a.Email]; ok {
		return fmt.Errorf("devidentity: duplicate email %q", a.Email)
	}
	p.accounts[a.UID] = &account{Account: a}
	p.byEmail[a.Email] = a.UID
	return nil
}

// SetDisabled toggles an account's disabled flag.
func (p *Provider) SetDisabled(uid string, disabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a, ok := p.accounts[uid]; ok {
		a.Disabled = disabled
	}
}

// Close shuts the state-change channel. The provider is unusable for client
// operations afterwards.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.changes)
	}
}

// --- admin surface ---

func (p *Provider) VerifyIDToken(_ context.Context, idToken string) (domainauth.TokenClaims, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, ok := p.tokens[idToken]
	if !ok {
		return domainauth.TokenClaims{}, apperrors.InvalidToken("auth/invalid-id-token",
			errors.New("devidentity: unknown token"))
	}
	if p.clock().After(tok.claims.ExpiresAt.Time()) {
		return domainauth.TokenClaims{}, apperrors.InvalidToken("auth/id-token-expired",
			errors.New("devidentity: token expired"))
	}
	if a, ok := p.accounts[tok.claims.UID]; ok && a.Disabled {
		return domainauth.TokenClaims{}, apperrors.InvalidToken("auth/user-disabled",
			errors.New("devidentity: account disabled"))
	}
	return tok.claims, nil
}

func (p *Provider) GetUser(_ context.Context, uid string) (domainauth.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.accounts[uid]
	if !ok {
		return domainauth.UserRecord{}, apperrors.PrincipalNotFound(uid)
	}
	return domainauth.UserRecord{
		UID:             a.UID,
		Email:           a.Email,
		EmailVerified:   true,
		DisplayName:     a.DisplayName,
		PhotoURL:        a.PhotoURL,
		Disabled:        a.Disabled,
		Role:            a.Role,
		TokensValidFrom: a.tokensValidFrom,
	}, nil
}

func (p *Provider) SetRoleClaim(_ context.Context, uid string, role domainauth.Role) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.accounts[uid]
	if !ok {
		return apperrors.PrincipalNotFound(uid)
	}
	a.Role = role
	return nil
}

func (p *Provider) RevokeSessions(_ context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.accounts[uid]
	if !ok {
		return apperrors.PrincipalNotFound(uid)
	}
	a.tokensValidFrom = domainauth.NewTimestamp(p.clock())
	return nil
}

// --- client SDK surface ---

func (p *Provider) SignInWithPassword(_ context.Context, email, password string) (ports.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	uid, ok := p.byEmail[email]
	if !ok {
		return ports.Credential{}, &ports.SignInError{
			Category: ports.SignInInvalidCredentials,
			Code:     "auth/invalid-credential",
		}
	}
	a := p.accounts[uid]

	if p.failed[email] >= p.maxFailed {
		return ports.Credential{}, &ports.SignInError{
			Category: ports.SignInRateLimited,
			Code:     "auth/too-many-requests",
		}
	}
	if a.Password == "" || a.Password != password {
		p.failed[email]++
		return ports.Credential{}, &ports.SignInError{
			Category: ports.SignInInvalidCredentials,
			Code:     "auth/invalid-credential",
		}
	}
	if a.Disabled {
		return ports.Credential{}, &ports.SignInError{
			Category: ports.SignInAccountDisabled,
			Code:     "auth/user-disabled",
		}
	}

	delete(p.failed, email)
	return p.signInLocked(a), nil
}

func (p *Provider) SignInWithOAuth(_ context.Context, provider string) (ports.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if provider != "google" || p.federated == "" {
		return ports.Credential{}, &ports.SignInError{
			Category: ports.SignInCancelled,
			Code:     "auth/popup-closed-by-user",
		}
	}
	a, ok := p.accounts[p.federated]
	if !ok {
		return ports.Credential{}, &ports.SignInError{
			Category: ports.SignInConflictingCredential,
			Code:     "auth/account-exists-with-different-credential",
		}
	}
	if a.Disabled {
		return ports.Credential{}, &ports.SignInError{
			Category: ports.SignInAccountDisabled,
			Code:     "auth/user-disabled",
		}
	}
	return p.signInLocked(a), nil
}

func (p *Provider) SignOut(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == "" {
		return nil
	}
	uid := p.current
	p.current = ""
	p.emitLocked(ports.StateChange{UID: uid, SignedIn: false})
	return nil
}

func (p *Provider) RefreshToken(_ context.Context, force bool) (ports.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == "" {
		return ports.Credential{}, ErrNoPrincipal
	}
	a := p.accounts[p.current]
	if a.Disabled {
		return ports.Credential{}, &ports.SignInError{
			Category: ports.SignInAccountDisabled,
			Code:     "auth/user-disabled",
		}
	}
	// force always mints; a non-forced refresh would reuse a cached token,
	// but minting fresh keeps the dev provider simple and correct.
	_ = force
	return p.mintLocked(a), nil
}

func (p *Provider) StateChanges() <-chan ports.StateChange {
	return p.changes
}

// signInLocked records the principal, mints a credential, and emits the
// state change. Caller holds p.mu.
func (p *Provider) signInLocked(a *account) ports.Credential {
	p.current = a.UID
	cred := p.mintLocked(a)
	p.emitLocked(ports.StateChange{UID: a.UID, SignedIn: true})
	return cred
}

func (p *Provider) mintLocked(a *account) ports.Credential {
	now := p.clock()
	token := "dev-idtoken-" + a.UID + "-" + uuid.NewString()
	p.tokens[token] = issuedToken{claims: domainauth.TokenClaims{
		UID:           a.UID,
		Email:         a.Email,
		EmailVerified: true,
		DisplayName:   a.DisplayName,
		PhotoURL:      a.PhotoURL,
		Role:          a.Role,
		IssuedAt:      domainauth.NewTimestamp(now),
		ExpiresAt:     domainauth.NewTimestamp(now.Add(p.tokenTTL)),
	}}
	return ports.Credential{
		UID:       a.UID,
		IDToken:   token,
		ExpiresAt: domainauth.NewTimestamp(now.Add(p.tokenTTL)),
	}
}

func (p *Provider) emitLocked(change ports.StateChange) {
	if p.closed {
		return
	}
	select {
	case p.changes <- change:
	default:
		// Nobody draining; the latest snapshot wins on the next read.
	}
}
