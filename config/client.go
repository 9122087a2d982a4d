package config

import "time"

// ClientConfig tunes the client-side session machinery: token cache
// staleness, the cooperative refresh lock, and per-endpoint timeouts.
type ClientConfig struct {
	// RefreshInterval is how often an authenticated session re-mints its
	// artifact in the background.
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"30m"`

	// RefreshThreshold marks a cached token refreshable this long before
	// its expiry; RefreshJitter widens that window randomly per check.
	RefreshThreshold time.Duration `env:"REFRESH_THRESHOLD" envDefault:"15m"`
	RefreshJitter    time.Duration `env:"REFRESH_JITTER"    envDefault:"1m"`

	// LockTTL is the refresh lock abandonment threshold; LockRetries bounds
	// acquisition backoff before proceeding without the lock.
	LockTTL     time.Duration `env:"LOCK_TTL"     envDefault:"10s"`
	LockRetries int           `env:"LOCK_RETRIES" envDefault:"3"`

	// Per-endpoint request timeouts.
	CreateTimeout time.Duration `env:"CREATE_TIMEOUT" envDefault:"8s"`
	CheckTimeout  time.Duration `env:"CHECK_TIMEOUT"  envDefault:"5s"`
	DeleteTimeout time.Duration `env:"DELETE_TIMEOUT" envDefault:"3s"`
}

// Sanitize applies guardrails to client configuration values.
func (c *ClientConfig) Sanitize() {
	if c.RefreshInterval < time.Minute {
		c.RefreshInterval = time.Minute
	}
	if c.LockRetries < 0 {
		c.LockRetries = 0
	}
	// Jitter must stay below the threshold or staleness could trigger at
	// negative remaining lifetime.
	if c.RefreshJitter >= c.RefreshThreshold {
		c.RefreshJitter = c.RefreshThreshold / 2
	}
}
