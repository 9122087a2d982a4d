package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RouteGuardOptions configures the routing gate.
type RouteGuardOptions struct {
	// PublicPaths are exact-match paths reachable without a session cookie.
	PublicPaths []string
	// PublicPrefixes are path prefixes reachable without a session cookie
	// (API endpoints, static assets, join links with a code suffix).
	PublicPrefixes []string
	// SignInPath is where unauthenticated requests are redirected.
	SignInPath string
	// HomePath is where non-admin requests for admin paths are redirected.
	HomePath string
	// AdminPrefix gates paths that additionally require the admin role.
	AdminPrefix string
}

// DefaultRouteGuardOptions returns the standard public allow-list and paths.
func DefaultRouteGuardOptions() RouteGuardOptions {
	return RouteGuardOptions{
		PublicPaths: []string{
			"/",
			"/signin",
			"/signup",
			"/reset-password",
			"/verify-email",
		},
		PublicPrefixes: []string{
			"/api/auth/session",
			"/join",
			"/static/",
			"/healthz",
		},
		SignInPath:  "/signin",
		HomePath:    "/",
		AdminPrefix: "/admin",
	}
}

// RouteGuard returns a middleware enforcing the routing contract: non-public
// paths require the session cookie (else redirect to sign-in carrying the
// intended destination), and admin-prefixed paths additionally require the
// role cookie to read "admin" (else redirect home, no error page).
//
// The role cookie is only a cache for this cheap pre-check; the check
// endpoint re-validates against the provider on every API call.
func RouteGuard(opts RouteGuardOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if isPublicPath(path, opts) {
				next.ServeHTTP(w, r)
				return
			}

			if cookieValue(r, SessionCookieName) == "" {
				redirectToSignIn(w, r, opts.SignInPath)
				return
			}

			if opts.AdminPrefix != "" && hasPathPrefix(path, opts.AdminPrefix) {
				role := domainauth.ParseRole(cookieValue(r, RoleCookieName))
				if !role.IsAdmin() {
					http.Redirect(w, r, opts.HomePath, http.StatusFound)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isPublicPath(path string, opts RouteGuardOptions) bool {
	for _, p := range opts.PublicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range opts.PublicPrefixes {
		if hasPathPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// hasPathPrefix matches whole path segments so "/admin" does not match
// "/administration".
func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) || strings.HasSuffix(prefix, "/") {
		return true
	}
	return path[len(prefix)] == '/'
}

func redirectToSignIn(w http.ResponseWriter, r *http.Request, signInPath string) {
	dest := r.URL.Path
	if r.URL.RawQuery != "" {
		dest += "?" + r.URL.RawQuery
	}
	target := signInPath + "?redirectTo=" + url.QueryEscape(dest)
	http.Redirect(w, r, target, http.StatusFound)
}
