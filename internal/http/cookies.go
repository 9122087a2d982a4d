package httpx

import (
	"net/http"
	"time"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
)

// Cookie names are part of the wire contract with the routing middleware and
// the client session service.
const (
	// SessionCookieName carries the signed session artifact.
	SessionCookieName = "session"
	// RoleCookieName caches the role for cheap middleware checks. The custom
	// claim on the provider record is the source of truth; this cookie is
	// re-synced on every session creation.
	RoleCookieName = "user_role"
)

// CookiePolicy controls the attributes applied to both session cookies.
// Both cookies always use httpOnly, path=/ and SameSite=Lax; Secure is
// enabled in production.
type CookiePolicy struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

// Set writes the session and role cookies with the policy's attributes.
// maxAge overrides the policy default when positive, so a reused artifact
// keeps its remaining lifetime instead of being extended.
func (p CookiePolicy) Set(w http.ResponseWriter, token string, role domainauth.Role, maxAge time.Duration) {
	if maxAge <= 0 {
		maxAge = p.MaxAge
	}
	http.SetCookie(w, p.cookie(SessionCookieName, token, maxAge))
	http.SetCookie(w, p.cookie(RoleCookieName, string(role), maxAge))
}

// Clear expires both cookies. Safe to call when no cookies are present.
func (p CookiePolicy) Clear(w http.ResponseWriter) {
	http.SetCookie(w, p.expired(SessionCookieName))
	http.SetCookie(w, p.expired(RoleCookieName))
}

func (p CookiePolicy) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   p.Domain,
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (p CookiePolicy) expired(name string) *http.Cookie {
	c := p.cookie(name, "", 0)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

// cookieValue returns the named cookie's value, or "" when absent.
func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
