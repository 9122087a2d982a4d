package auth

// Package auth contains domain-level types for identity, sessions, and the
// session check protocol. It is pure and free of framework/adapter concerns.

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole normalizes a raw role string. Unknown or empty values fall back
// to RoleUser, the default role for new principals.
func ParseRole(raw string) Role {
	if raw == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// IsAdmin reports whether the role grants admin access.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// TokenClaims is the verified content of an identity token or session
// artifact. Adapters map provider-specific claim shapes into this one.
type TokenClaims struct {
	UID           string
	Email         string
	EmailVerified bool
	DisplayName   string
	PhotoURL      string
	Role          Role // custom claim; empty when the provider never set one
	IssuedAt      Timestamp
	ExpiresAt     Timestamp
}

// UserRecord is the identity provider's view of a principal.
type UserRecord struct {
	UID             string
	Email           string
	EmailVerified   bool
	DisplayName     string
	PhotoURL        string
	Disabled        bool
	Role            Role // custom claim role, empty if never set
	TokensValidFrom Timestamp
}

// Profile is the application's profile record for a principal, owned by the
// profile store. It is a soft dependency of the session check path.
type Profile struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	PhotoURL      string    `json:"photo_url"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     Timestamp `json:"created_at"`
	LastLoginAt   Timestamp `json:"last_login_at"`
}

// SessionUser is the normalized user descriptor returned by a successful
// session check. Identity fields prefer token claims; application fields
// prefer the profile record.
type SessionUser struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	PhotoURL      string    `json:"photoURL,omitempty"`
	LastLoginAt   Timestamp `json:"lastLoginAt"`
	CreatedAt     Timestamp `json:"createdAt"`
}

// FailureReason is a machine-readable reason for an unauthenticated result.
// Callers branch on these; they are part of the wire contract.
type FailureReason string

const (
	ReasonNoCookie      FailureReason = "no_cookie"
	ReasonInvalidCookie FailureReason = "invalid_cookie"
	ReasonUserNotFound  FailureReason = "user_not_found"
	ReasonTimeout       FailureReason = "timeout"
	ReasonNetworkError  FailureReason = "network_error"
	ReasonParseError    FailureReason = "parse_error"
)

// CheckResult is the outcome of validating a session artifact.
type CheckResult struct {
	Authenticated bool
	Reason        FailureReason // set only when Authenticated is false
	User          *SessionUser  // set only when Authenticated is true
}

// MergeUser builds a SessionUser from verified claims and an optional
// profile. Claims win for identity fields; the profile wins for
// application-owned fields (role, timestamps).
func MergeUser(claims TokenClaims, profile *Profile) SessionUser {
	u := SessionUser{
		UID:           claims.UID,
		Email:         claims.Email,
		DisplayName:   claims.DisplayName,
		EmailVerified: claims.EmailVerified,
		PhotoURL:      claims.PhotoURL,
		Role:          ResolveRole(profile, claims),
	}
	if profile != nil {
		if u.Email == "" {
			u.Email = profile.Email
		}
		if u.DisplayName == "" {
			u.DisplayName = profile.DisplayName
		}
		if u.PhotoURL == "" {
			u.PhotoURL = profile.PhotoURL
		}
		u.CreatedAt = profile.CreatedAt
		u.LastLoginAt = profile.LastLoginAt
	}
	return u
}

// ResolveRole applies the role resolution order used by both the create and
// check paths: profile record first, then the token's custom claim, then the
// default user role.
func ResolveRole(profile *Profile, claims TokenClaims) Role {
	if profile != nil && profile.Role != "" {
		return profile.Role
	}
	if claims.Role != "" {
		return claims.Role
	}
	return RoleUser
}

// ReconcileResult describes whether client and server session state agreed
// and, if not, which side was corrected. Never persisted.
type ReconcileResult struct {
	InSync    bool
	Corrected Side
	Reason    FailureReason
}

// Side names a party in client/server reconciliation.
type Side string

const (
	SideNone   Side = ""
	SideClient Side = "client"
	SideServer Side = "server"
)
