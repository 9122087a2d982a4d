package httpx

import (
	"context"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
)

// sessionUserKey is an unexported context key type to avoid collisions
// across packages.
type sessionUserKey struct{}

// SetSessionUserInContext returns a child context carrying the given user.
// If user is nil, the original ctx is returned unchanged.
func SetSessionUserInContext(ctx context.Context, user *domainauth.SessionUser) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionUserKey{}, user)
}

// GetSessionUserFromContext returns the session user from context and a
// boolean indicating presence.
func GetSessionUserFromContext(ctx context.Context) (*domainauth.SessionUser, bool) {
	if user, ok := ctx.Value(sessionUserKey{}).(*domainauth.SessionUser); ok && user != nil {
		return user, true
	}
	return nil, false
}

// IsAdminUser reports whether the current request context carries an admin.
func IsAdminUser(ctx context.Context) bool {
	user, ok := GetSessionUserFromContext(ctx)
	return ok && user.Role.IsAdmin()
}
