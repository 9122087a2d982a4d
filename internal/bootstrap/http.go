package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/quizforge/sessiond/config"
	httpx "github.com/quizforge/sessiond/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil {
		return nil, nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	app, err := buildAppHandler(appCfg, logger)
	if err != nil {
		return nil, err
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Session: cfg.Services.Session,
		Cookies: httpx.CookiePolicy{
			Domain: appCfg.Session.CookieDomain,
			Secure: appCfg.CookiesSecure(),
			MaxAge: appCfg.Session.TTL,
		},
		App:    app,
		Logger: logger,
	})

	server := startServer(logger, handler, appCfg.HTTP.Addr)
	return server, nil
}

// buildAppHandler proxies guarded page routes to the frontend upstream when
// one is configured; otherwise the guard fronts 404s (API-only deployment).
func buildAppHandler(cfg *config.AppConfig, logger *slog.Logger) (http.Handler, error) {
	if cfg.HTTP.AppUpstream == "" {
		return nil, nil
	}
	upstream, err := url.Parse(cfg.HTTP.AppUpstream)
	if err != nil {
		return nil, fmt.Errorf("parse app upstream: %w", err)
	}
	logger.Info("proxying app routes", "upstream", upstream.Redacted())
	return httputil.NewSingleHostReverseProxy(upstream), nil
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}

	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}

	return nil
}
