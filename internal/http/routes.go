package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// RouterServices holds everything needed by the HTTP router.
type RouterServices struct {
	Session SessionServiceInterface
	Cookies CookiePolicy
	// App serves the application routes behind the route guard (the page
	// frontend or a reverse proxy to it). Nil falls back to 404s.
	App http.Handler
	// Guard overrides the routing gate configuration; zero value uses
	// DefaultRouteGuardOptions.
	Guard  *RouteGuardOptions
	Logger *slog.Logger
	// Now overrides the handlers' clock for tests.
	Now func() time.Time
}

// NewRouter creates and configures the HTTP router. The session API is
// registered directly; everything else flows through the route guard.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	sessionHandlers := &SessionHandlers{
		Svc:     services.Session,
		Cookies: services.Cookies,
		Logger:  logger,
		Now:     services.Now,
	}
	registerSessionRoutes(mux, sessionHandlers)

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	guardOpts := DefaultRouteGuardOptions()
	if services.Guard != nil {
		guardOpts = *services.Guard
	}
	app := services.App
	if app == nil {
		app = http.NotFoundHandler()
	}
	mux.Handle("/", RouteGuard(guardOpts)(app))

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

func registerSessionRoutes(mux *http.ServeMux, h *SessionHandlers) {
	mux.HandleFunc("POST /api/auth/session", h.Create)
	mux.HandleFunc("DELETE /api/auth/session", h.Delete)
	mux.HandleFunc("GET /api/auth/session/check", h.Check)
	mux.HandleFunc("GET /api/auth/session/debug", h.Debug)
}
