package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quizforge/sessiond/config"
	"github.com/quizforge/sessiond/internal/adapters/devidentity"
	"github.com/quizforge/sessiond/internal/adapters/identity"
	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	"github.com/quizforge/sessiond/internal/ports"
)

// Identity bundles the provider surfaces the rest of the system needs. The
// client side is only populated in dev mode; production clients carry their
// own provider SDK.
type Identity struct {
	Admin  ports.IdentityAdmin
	Client ports.IdentityClient // nil unless dev mode
}

// BuildIdentity constructs the identity provider for the configured mode.
func BuildIdentity(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (Identity, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeDev:
		return buildDevIdentity(cfg, logger)
	case config.AuthModeOIDC:
		return buildOIDCIdentity(ctx, cfg, logger)
	default:
		return Identity{}, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}

func buildDevIdentity(cfg *config.AppConfig, logger *slog.Logger) (Identity, error) {
	dev := cfg.Auth.Dev
	provider, err := devidentity.NewProvider(devidentity.Config{
		Accounts: []devidentity.Account{{
			UID:         dev.UID,
			Email:       dev.Email,
			Password:    dev.Password,
			DisplayName: dev.DisplayName,
			Role:        domainauth.ParseRole(dev.Role),
		}},
		FederatedUID: dev.UID,
	})
	if err != nil {
		return Identity{}, fmt.Errorf("build dev identity: %w", err)
	}

	logger.Warn("using dev identity provider; not for production",
		"uid", dev.UID, "email", dev.Email)
	return Identity{Admin: provider, Client: provider}, nil
}

func buildOIDCIdentity(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (Identity, error) {
	id := cfg.Auth.Identity
	provider, err := identity.NewProvider(ctx, identity.ProviderConfig{
		IssuerURL:    id.IssuerURL,
		Audience:     id.Audience,
		AdminBaseURL: id.AdminBaseURL,
		ClientID:     id.ClientID,
		ClientSecret: id.ClientSecret,
		TokenURL:     id.TokenURL,
	})
	if err != nil {
		return Identity{}, fmt.Errorf("build oidc identity: %w", err)
	}

	logger.Info("identity provider initialized", "issuer", id.IssuerURL)
	return Identity{Admin: provider}, nil
}
