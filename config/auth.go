package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the identity provider mode for the application.
type AuthMode string

const (
	// AuthModeOIDC verifies tokens against a real OIDC identity platform.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeDev uses the in-process dev identity provider (development
	// and testing only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oidc", "dev":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oidc, dev)", v)
	}
}

// IdentityConfig contains OIDC identity platform configuration.
type IdentityConfig struct {
	IssuerURL    string `env:"ISSUER_URL"`
	Audience     string `env:"AUDIENCE"`
	AdminBaseURL string `env:"ADMIN_BASE_URL"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	// TokenURL overrides the discovered token endpoint for admin API
	// credentials. Empty uses discovery.
	TokenURL string `env:"TOKEN_URL"`
}

// DevIdentityConfig seeds the in-process identity provider.
// Used when AUTH_MODE=dev for development and testing.
type DevIdentityConfig struct {
	UID         string `env:"UID"          envDefault:"dev-user"`
	Email       string `env:"EMAIL"        envDefault:"dev@example.com"`
	Password    string `env:"PASSWORD"     envDefault:"dev-password"`
	DisplayName string `env:"DISPLAY_NAME" envDefault:"Dev User"`
	Role        string `env:"ROLE"         envDefault:"admin"`
}

// AuthConfig groups all identity-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oidc"`

	// Identity configuration (used when Mode=oidc).
	Identity IdentityConfig `envPrefix:"IDENTITY_"`

	// Dev identity configuration (used when Mode=dev).
	Dev DevIdentityConfig `envPrefix:"DEV_IDENTITY_"`
}
