package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	"github.com/quizforge/sessiond/internal/service"
)

// SessionServiceInterface defines the session operations the handlers need.
type SessionServiceInterface interface {
	CreateSession(ctx context.Context, input service.CreateSessionInput) (*service.CreateSessionResult, error)
	CheckSession(ctx context.Context, cookie string) (domainauth.CheckResult, error)
	ClearSession(ctx context.Context, cookie string)
	DebugSession(ctx context.Context, input service.DebugInput) service.DebugReport
}

// SessionHandlers provides HTTP handlers for the session endpoints.
type SessionHandlers struct {
	Svc     SessionServiceInterface
	Cookies CookiePolicy
	Logger  *slog.Logger
	// Now supplies the clock for cookie max-age math; defaults to time.Now.
	Now func() time.Time
}

func (h *SessionHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *SessionHandlers) now() time.Time {
	if h != nil && h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type createSessionRequest struct {
	IDToken string `json:"idToken"`
}

// Create handles POST /api/auth/session.
// Exchanges a freshly-minted identity token for the session cookies.
func (h *SessionHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.IDToken == "" {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing ID token"})
		return
	}

	result, err := h.Svc.CreateSession(r.Context(), service.CreateSessionInput{
		IDToken:    req.IDToken,
		PriorToken: cookieValue(r, SessionCookieName),
	})
	if err != nil {
		h.logger().Warn("session creation failed", "error", err)
		// No cookies are set on any failure.
		WriteAppError(w, err)
		return
	}

	// A reused artifact keeps its remaining lifetime.
	maxAge := result.ExpiresAt.Sub(h.now())
	h.Cookies.Set(w, result.Token, result.Role, maxAge)

	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"role":    result.Role,
		"uid":     result.UID,
	})
}

// Delete handles DELETE /api/auth/session.
// Unconditionally expires both cookies; succeeds even with no session.
func (h *SessionHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	h.Svc.ClearSession(r.Context(), cookieValue(r, SessionCookieName))
	h.Cookies.Clear(w)
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Check handles GET /api/auth/session/check.
// Validates the session cookie and returns the authenticated user, or a
// typed failure reason. Failed checks clear stale cookies on the response.
func (h *SessionHandlers) Check(w http.ResponseWriter, r *http.Request) {
	result, err := h.Svc.CheckSession(r.Context(), cookieValue(r, SessionCookieName))
	if err != nil {
		h.logger().Error("session check failed", "error", err)
		WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"isAuthenticated": false,
			"error":           "Internal Server Error",
			"message":         err.Error(),
		})
		return
	}

	if !result.Authenticated {
		h.Cookies.Clear(w)
		WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"isAuthenticated": false,
			"reason":          result.Reason,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"isAuthenticated": true,
		"user":            result.User,
	})
}

// Debug handles GET /api/auth/session/debug.
// Diagnostic only; never mutates state and must not be used by application
// logic.
func (h *SessionHandlers) Debug(w http.ResponseWriter, r *http.Request) {
	report := h.Svc.DebugSession(r.Context(), service.DebugInput{
		UserAgent:     r.UserAgent(),
		SessionCookie: cookieValue(r, SessionCookieName),
		RoleCookie:    cookieValue(r, RoleCookieName),
	})
	WriteJSON(w, http.StatusOK, report)
}

// RequireSession returns a middleware that validates the session cookie via
// the check path and injects the user into the request context. API-facing
// counterpart of the cookie-sniffing RouteGuard.
func RequireSession(svc SessionServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := svc.CheckSession(r.Context(), cookieValue(r, SessionCookieName))
			if err != nil {
				WriteError(w, ErrorParams{
					Status:  http.StatusInternalServerError,
					ErrCode: "Internal Server Error",
					Err:     err,
				})
				return
			}
			if !result.Authenticated {
				WriteError(w, ErrorParams{
					Status:  http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
					Code:    string(result.Reason),
				})
				return
			}

			ctx := SetSessionUserInContext(r.Context(), result.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin wraps RequireSession and additionally rejects non-admins.
func RequireAdmin(svc SessionServiceInterface) func(http.Handler) http.Handler {
	requireSession := RequireSession(svc)
	return func(next http.Handler) http.Handler {
		return requireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAdminUser(r.Context()) {
				WriteError(w, ErrorParams{
					Status:  http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("admin role required"),
				})
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
