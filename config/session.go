package config

import "time"

// SessionConfig configures the server session artifact and its cookies.
type SessionConfig struct {
	// Secret signs session artifacts. Must be at least 32 bytes.
	Secret string `env:"SECRET"`

	// TTL is the session artifact lifetime. 336h = 14 days.
	TTL time.Duration `env:"TTL" envDefault:"336h"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"COOKIE_DOMAIN" envDefault:""`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	// A sub-hour artifact would expire before the first background refresh.
	if s.TTL < time.Hour {
		s.TTL = time.Hour
	}
}
