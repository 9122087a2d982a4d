package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Identity provider configuration
//   - session.go: Session artifact and cookie configuration
//   - client.go: Client-side refresh and lock tuning
//   - database.go: Database and Redis configuration
//   - http.go: HTTP server configuration
type AppConfig struct {
	// IsDev controls development mode behavior (dev identity provider,
	// non-secure cookies). Set DEV=true or NODE_ENV=development.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Auth selects and configures the identity provider.
	Auth AuthConfig

	// Session configures the server session artifact and cookies.
	Session SessionConfig `envPrefix:"SESSION_"`

	// Client tunes the client-side token cache, lock, and timeouts.
	Client ClientConfig `envPrefix:"CLIENT_"`

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment
// variables.
func (c *AppConfig) Sanitize() {
	c.Session.Sanitize()
	c.Client.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// CookiesSecure reports whether session cookies should carry the Secure
// attribute. Production always does; dev mode allows plain HTTP.
func (c *AppConfig) CookiesSecure() bool {
	return !c.IsDev
}
