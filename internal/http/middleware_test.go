package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guardedApp(t *testing.T) http.Handler {
	t.Helper()
	app := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return RouteGuard(DefaultRouteGuardOptions())(app)
}

func TestRouteGuard_PublicPathsPassWithoutSession(t *testing.T) {
	handler := guardedApp(t)

	for _, path := range []string{
		"/",
		"/signin",
		"/signup",
		"/reset-password",
		"/verify-email",
		"/join",
		"/join/ABC123",
		"/api/auth/session",
		"/api/auth/session/check",
		"/static/app.css",
		"/healthz",
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
}

func TestRouteGuard_ProtectedPathRedirectsToSignIn(t *testing.T) {
	handler := guardedApp(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard?tab=recent", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/signin?redirectTo=%2Fdashboard%3Ftab%3Drecent", rec.Header().Get("Location"))
}

func TestRouteGuard_SessionCookieGrantsAccess(t *testing.T) {
	handler := guardedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "artifact"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouteGuard_AdminPrefixRequiresAdminRole(t *testing.T) {
	handler := guardedApp(t)

	// Session present but role cookie missing: redirected home.
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "artifact"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// Role cookie "user": still redirected.
	req = httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "artifact"})
	req.AddCookie(&http.Cookie{Name: RoleCookieName, Value: "user"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)

	// Role cookie "admin": allowed.
	req = httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "artifact"})
	req.AddCookie(&http.Cookie{Name: RoleCookieName, Value: "admin"})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouteGuard_AdminPrefixMatchesWholeSegments(t *testing.T) {
	handler := guardedApp(t)

	// "/administration" is not under the admin prefix; a plain session is
	// enough.
	req := httptest.NewRequest(http.MethodGet, "/administration", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "artifact"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouteGuard_ForgedRoleCookieFallsBackToUser(t *testing.T) {
	handler := guardedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "artifact"})
	req.AddCookie(&http.Cookie{Name: RoleCookieName, Value: "superadmin"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
