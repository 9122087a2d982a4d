package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	apperrors "github.com/quizforge/sessiond/internal/errors"
	"github.com/quizforge/sessiond/internal/ports"
)

// Status is the auth state machine's top-level state.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// DefaultRefreshInterval is how often an authenticated session is refreshed
// in the background.
const DefaultRefreshInterval = 30 * time.Minute

// Snapshot is an immutable view of the auth state. Subscribers receive a
// new Snapshot on every transition.
type Snapshot struct {
	Status Status
	UID    string
	Role   domainauth.Role
	User   *domainauth.SessionUser
	// Reconcile reports the most recent client/server reconciliation, when
	// one ran.
	Reconcile *domainauth.ReconcileResult
}

// StoreOptions groups dependencies for the auth state store.
type StoreOptions struct {
	Identity ports.IdentityClient
	Sessions *SessionClient
	Tokens   *TokenStore
	Lock     *Lock

	RefreshInterval time.Duration
	Logger          *slog.Logger
}

// Store owns the client-side auth lifecycle: it tracks provider state
// changes, keeps the server session in sync, and runs the periodic refresh.
// It is an explicit owned resource with Init and Teardown; nothing here is
// ambient.
type Store struct {
	identity ports.IdentityClient
	sessions *SessionClient
	tokens   *TokenStore
	lock     *Lock

	refreshInterval time.Duration
	logger          *slog.Logger

	mu      sync.Mutex
	snap    Snapshot
	subs    map[int]chan Snapshot
	nextSub int

	resolved    chan struct{}
	resolveOnce sync.Once

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStore constructs a Store in the loading state.
func NewStore(opts StoreOptions) *Store {
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		identity:        opts.Identity,
		sessions:        opts.Sessions,
		tokens:          opts.Tokens,
		lock:            opts.Lock,
		refreshInterval: interval,
		logger:          logger,
		snap:            Snapshot{Status: StatusLoading},
		subs:            make(map[int]chan Snapshot),
		resolved:        make(chan struct{}),
	}
}

// Init starts the state machine: it subscribes to provider state changes and
// runs the periodic refresh loop until Teardown.
func (s *Store) Init(ctx context.Context) error {
	if s.cancel != nil {
		return errors.New("auth store already initialized")
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(runCtx)
	return nil
}

// Teardown stops the refresh timer and the state-change loop. The store is
// not reusable afterwards.
func (s *Store) Teardown() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *Store) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	changes := s.identity.StateChanges()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			s.handleStateChange(ctx, change)
		case <-ticker.C:
			if s.Snapshot().Status != StatusAuthenticated {
				continue
			}
			if err := s.RefreshSession(ctx); err != nil {
				s.logger.Warn("periodic session refresh failed", "error", err)
			}
		}
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers for state transitions. The returned cancel func must
// be called to release the subscription.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 8)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			close(sub)
			delete(s.subs, id)
		}
	}
}

func (s *Store) setState(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Slow subscriber; drop rather than block the state machine.
		}
	}
	s.mu.Unlock()

	if snap.Status != StatusLoading {
		s.resolveOnce.Do(func() { close(s.resolved) })
	}
}

// handleStateChange reacts to a provider push notification.
func (s *Store) handleStateChange(ctx context.Context, change ports.StateChange) {
	if change.SignedIn {
		if err := s.establishSession(ctx); err != nil {
			s.logger.Warn("session establishment after provider sign-in failed",
				"uid", change.UID, "error", err)
			s.setState(Snapshot{Status: StatusUnauthenticated})
		}
		return
	}
	s.reconcileSignedOut(ctx)
}

// establishSession forces a fresh identity token, exchanges it for a server
// session, and moves to authenticated. Serialized by the session lock so a
// timer tick and a user action cannot race to mint two sessions.
func (s *Store) establishSession(ctx context.Context) error {
	return s.lock.WithLock(ctx, func(ctx context.Context) error {
		cred, err := s.identity.RefreshToken(ctx, true)
		if err != nil {
			return fmt.Errorf("refresh identity token: %w", err)
		}

		resp, err := s.createSessionWithRetry(ctx, cred.IDToken)
		if err != nil {
			return err
		}

		if saveErr := s.tokens.Save(ctx, TokenCacheEntry{
			UID:       cred.UID,
			Token:     cred.IDToken,
			ExpiresAt: cred.ExpiresAt,
		}); saveErr != nil {
			// Cache failure is soft; the session itself is established.
			s.logger.Warn("token cache write failed", "error", saveErr)
		}

		s.setState(Snapshot{
			Status: StatusAuthenticated,
			UID:    resp.UID,
			Role:   resp.Role,
		})
		return nil
	})
}

// createSessionWithRetry retries exactly once on transient transport
// failures; anything else surfaces immediately.
func (s *Store) createSessionWithRetry(ctx context.Context, idToken string) (*CreateSessionResponse, error) {
	resp, err := s.sessions.CreateSession(ctx, idToken)
	if err == nil {
		return resp, nil
	}
	if !apperrors.IsTimeout(err) && !apperrors.IsNetwork(err) {
		return nil, err
	}
	s.logger.Debug("session create retry after transient failure", "error", err)
	return s.sessions.CreateSession(ctx, idToken)
}

// reconcileSignedOut handles the provider reporting no principal. Server
// state must never outlive client state: when the server still believes the
// session is valid, it is proactively cleared.
func (s *Store) reconcileSignedOut(ctx context.Context) {
	reconcile := &domainauth.ReconcileResult{InSync: true}

	result, err := s.sessions.CheckSession(ctx)
	switch {
	case err != nil:
		s.logger.Warn("server session check during sign-out failed", "error", err)
	case result.Authenticated:
		reconcile.InSync = false
		reconcile.Corrected = domainauth.SideServer
		if clearErr := s.sessions.ClearSession(ctx); clearErr != nil {
			s.logger.Warn("clearing zombie server session failed", "error", clearErr)
		}
	default:
		reconcile.Reason = result.Reason
	}

	s.tokens.Clear(ctx)
	s.setState(Snapshot{Status: StatusUnauthenticated, Reconcile: reconcile})
}

// Login signs in with email/password and establishes the server session.
// Login only succeeds once the server session exists; a provider success
// followed by a session failure is reported as a failed login.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if _, err := s.identity.SignInWithPassword(ctx, email, password); err != nil {
		return err
	}
	if err := s.establishSession(ctx); err != nil {
		return fmt.Errorf("provider sign-in succeeded but session creation failed: %w", err)
	}
	return nil
}

// LoginWithGoogle signs in via the federated Google provider.
func (s *Store) LoginWithGoogle(ctx context.Context) error {
	if _, err := s.identity.SignInWithOAuth(ctx, "google"); err != nil {
		return err
	}
	if err := s.establishSession(ctx); err != nil {
		return fmt.Errorf("provider sign-in succeeded but session creation failed: %w", err)
	}
	return nil
}

// Logout tears the session down. Ordering matters: the server session goes
// first so there is no window where the client looks logged out while the
// cookie is still valid, then the provider sign-out, then local state.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.sessions.ClearSession(ctx); err != nil {
		s.logger.Warn("server session clear during logout failed", "error", err)
	}
	if err := s.identity.SignOut(ctx); err != nil {
		return fmt.Errorf("provider sign-out: %w", err)
	}
	s.tokens.Clear(ctx)
	s.setState(Snapshot{Status: StatusUnauthenticated})
	return nil
}

// RefreshSession re-establishes the server session with a freshly minted
// identity token, serialized by the session lock.
func (s *Store) RefreshSession(ctx context.Context) error {
	return s.establishSession(ctx)
}

// ResolveState classifies the outcome of waiting for the initial auth
// resolution.
type ResolveState string

const (
	ResolvePending  ResolveState = "pending"
	ResolveResolved ResolveState = "resolved"
	// ResolveTimedOut means the wait elapsed with the state machine still
	// loading. Callers choose their own policy; CachedUID supports an
	// optimistic render when a principal was cached from a prior run.
	ResolveTimedOut ResolveState = "timed_out_unresolved"
)

// ResolveOutcome is the three-state result of WaitUntilResolved.
type ResolveOutcome struct {
	State     ResolveState
	Snapshot  Snapshot
	CachedUID string
}

// WaitUntilResolved blocks until the state machine leaves loading, the wait
// times out, or ctx is done. It never blocks indefinitely.
func (s *Store) WaitUntilResolved(ctx context.Context, wait time.Duration) ResolveOutcome {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-s.resolved:
		return ResolveOutcome{State: ResolveResolved, Snapshot: s.Snapshot()}
	case <-ctx.Done():
	case <-timer.C:
	}

	outcome := ResolveOutcome{State: ResolveTimedOut, Snapshot: s.Snapshot()}
	if cached := s.tokens.Load(ctx); cached != nil {
		outcome.CachedUID = cached.UID
	}
	return outcome
}
