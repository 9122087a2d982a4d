package client

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/quizforge/sessiond/config"
	"github.com/quizforge/sessiond/internal/ports"
)

// RuntimeOptions groups what an application process needs to assemble the
// client-side session machinery from configuration.
type RuntimeOptions struct {
	// Config tunes cache staleness, the refresh lock, and request timeouts.
	// Callers should have run Sanitize on it.
	Config config.ClientConfig

	// BaseURL is the session endpoint base, e.g. "https://app.example.com".
	BaseURL string

	// Storage backs the token cache and the refresh lock. All processes of
	// one principal must share it for the lock to mean anything.
	Storage ports.KVStore

	Identity ports.IdentityClient

	// HTTPClient overrides the session client's transport; nil gets a fresh
	// client with an in-memory cookie jar.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewRuntime builds the auth state store and its collaborators from
// configuration. The returned store still needs Init.
func NewRuntime(opts RuntimeOptions) (*Store, error) {
	if opts.Storage == nil {
		return nil, errors.New("client runtime: storage is required")
	}
	if opts.Identity == nil {
		return nil, errors.New("client runtime: identity client is required")
	}

	cfg := opts.Config
	sessions, err := NewSessionClient(SessionClientOptions{
		BaseURL:       opts.BaseURL,
		HTTPClient:    opts.HTTPClient,
		Logger:        opts.Logger,
		CreateTimeout: cfg.CreateTimeout,
		CheckTimeout:  cfg.CheckTimeout,
		DeleteTimeout: cfg.DeleteTimeout,
	})
	if err != nil {
		return nil, err
	}

	tokens := NewTokenStore(TokenStoreOptions{
		KV:               opts.Storage,
		RefreshThreshold: cfg.RefreshThreshold,
		RefreshJitter:    cfg.RefreshJitter,
	})
	lock := NewLock(LockOptions{
		KV:      opts.Storage,
		TTL:     cfg.LockTTL,
		Retries: cfg.LockRetries,
		Logger:  opts.Logger,
	})

	return NewStore(StoreOptions{
		Identity:        opts.Identity,
		Sessions:        sessions,
		Tokens:          tokens,
		Lock:            lock,
		RefreshInterval: cfg.RefreshInterval,
		Logger:          opts.Logger,
	}), nil
}
