package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/quizforge/sessiond/config"
)

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// ValidateConfig checks requirements that env defaults cannot express.
func ValidateConfig(cfg *config.AppConfig) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if len(cfg.Session.Secret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 bytes")
	}
	if cfg.Auth.Mode == config.AuthModeOIDC {
		id := cfg.Auth.Identity
		if id.IssuerURL == "" || id.Audience == "" || id.AdminBaseURL == "" ||
			id.ClientID == "" || id.ClientSecret == "" {
			return errors.New("AUTH_MODE=oidc requires IDENTITY_ISSUER_URL, IDENTITY_AUDIENCE, IDENTITY_ADMIN_BASE_URL, IDENTITY_CLIENT_ID, IDENTITY_CLIENT_SECRET")
		}
	}
	return nil
}
