package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/quizforge/sessiond/internal/data"
	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	apperrors "github.com/quizforge/sessiond/internal/errors"
	"github.com/quizforge/sessiond/internal/ports"
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Identity     ports.IdentityAdmin
	Profiles     ports.ProfileRepository
	Revocations  ports.RevocationStore
	Codec        *TokenCodec
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
}

// SessionService implements session creation, validation, and teardown. It is
// stateless between calls; all durable state lives in the profile store, the
// revocation store, and the artifact itself.
type SessionService struct {
	identity    ports.IdentityAdmin
	profiles    ports.ProfileRepository
	revocations ports.RevocationStore
	codec       *TokenCodec
	timeProv    data.TimeProvider
	logger      *slog.Logger

	// claimSync collapses concurrent custom-claim writes for the same
	// principal into one provider call.
	claimSync singleflight.Group
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	tp := opts.TimeProvider
	if tp == nil {
		tp = &data.RealTimeProvider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		identity:    opts.Identity,
		profiles:    opts.Profiles,
		revocations: opts.Revocations,
		codec:       opts.Codec,
		timeProv:    tp,
		logger:      logger,
	}
}

// CreateSessionInput groups parameters for creating a session.
type CreateSessionInput struct {
	// IDToken is the freshly-minted identity token to exchange.
	IDToken string
	// PriorToken is the session artifact already present on the request, if
	// any. A still-valid artifact for the same principal is reused instead of
	// minting a new one.
	PriorToken string
}

// CreateSessionResult contains the outcome of a session creation.
type CreateSessionResult struct {
	UID       string
	Role      domainauth.Role
	Token     string
	ExpiresAt time.Time
	// Reused reports that PriorToken was still valid for the same principal
	// and was kept. A reused artifact retains its original expiry.
	Reused bool
}

// CreateSession exchanges an identity token for a session artifact. It
// ensures the profile record exists, reconciles the role custom claim, and
// dedupes against a still-valid artifact on the request.
func (s *SessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error) {
	if input.IDToken == "" {
		return nil, apperrors.Validation("missing ID token")
	}

	claims, err := s.identity.VerifyIDToken(ctx, input.IDToken)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.EnsureOnLogin(ctx, claims)
	if err != nil {
		return nil, apperrors.ProfileUnavailable(err)
	}

	role := domainauth.ResolveRole(profile, claims)

	if err := s.syncRoleClaim(ctx, claims, role); err != nil {
		return nil, err
	}

	now := s.timeProv.Now()

	if reused := s.reusableArtifact(ctx, input.PriorToken, claims.UID, now); reused != nil {
		s.logger.Debug("reusing existing session artifact",
			"uid", claims.UID,
			"expires_at", reused.ExpiresAt.Time)
		return &CreateSessionResult{
			UID:       claims.UID,
			Role:      role,
			Token:     input.PriorToken,
			ExpiresAt: reused.ExpiresAt.Time,
			Reused:    true,
		}, nil
	}

	token, err := s.codec.Mint(claims.UID, role, now)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "mint session token")
	}

	s.logger.Info("session created", "uid", claims.UID, "role", role)

	return &CreateSessionResult{
		UID:       claims.UID,
		Role:      role,
		Token:     token,
		ExpiresAt: now.Add(s.codec.TTL()),
	}, nil
}

// syncRoleClaim writes the role custom claim when it diverges from the
// effective role. Equal claims skip the provider call entirely.
func (s *SessionService) syncRoleClaim(ctx context.Context, claims domainauth.TokenClaims, role domainauth.Role) error {
	if claims.Role == role {
		return nil
	}

	key := fmt.Sprintf("%s:%s", claims.UID, role)
	_, err, _ := s.claimSync.Do(key, func() (any, error) {
		return nil, s.identity.SetRoleClaim(ctx, claims.UID, role)
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "set role claim")
	}

	s.logger.Info("role claim updated", "uid", claims.UID, "role", role)
	return nil
}

// reusableArtifact returns the parsed claims of prior when it is a valid,
// non-revoked artifact for uid, or nil when a fresh artifact is needed.
func (s *SessionService) reusableArtifact(ctx context.Context, prior, uid string, now time.Time) *SessionClaims {
	if prior == "" {
		return nil
	}
	parsed, err := s.codec.Parse(prior, now)
	if err != nil || parsed.UID() != uid {
		return nil
	}
	if revoked, err := s.isRevoked(ctx, uid, parsed.IssuedAt.Time); err != nil || revoked {
		return nil
	}
	return parsed
}

// isRevoked reports whether an artifact issued at issuedAt falls behind the
// principal's revocation watermark.
func (s *SessionService) isRevoked(ctx context.Context, uid string, issuedAt time.Time) (bool, error) {
	validFrom, err := s.revocations.ValidFrom(ctx, uid)
	if err != nil {
		return false, err
	}
	if validFrom.IsZero() {
		return false, nil
	}
	// Watermarks have second granularity; compare on unix seconds.
	return issuedAt.Unix() < validFrom.Unix(), nil
}

// CheckSession validates a session artifact and returns the check outcome.
// Reason-carrying failures are part of the normal result; an error return
// means the check itself could not run.
func (s *SessionService) CheckSession(ctx context.Context, cookie string) (domainauth.CheckResult, error) {
	if cookie == "" {
		return domainauth.CheckResult{Reason: domainauth.ReasonNoCookie}, nil
	}

	now := s.timeProv.Now()
	parsed, err := s.codec.Parse(cookie, now)
	if err != nil {
		return domainauth.CheckResult{Reason: domainauth.ReasonInvalidCookie}, nil
	}
	uid := parsed.UID()

	revoked, err := s.isRevoked(ctx, uid, parsed.IssuedAt.Time)
	if err != nil {
		return domainauth.CheckResult{}, fmt.Errorf("check revocation for %s: %w", uid, err)
	}
	if revoked {
		s.logger.Info("session artifact revoked", "uid", uid)
		return domainauth.CheckResult{Reason: domainauth.ReasonInvalidCookie}, nil
	}

	user, err := s.identity.GetUser(ctx, uid)
	if err != nil {
		if apperrors.IsPrincipalNotFound(err) || apperrors.IsNotFound(err) {
			return domainauth.CheckResult{Reason: domainauth.ReasonUserNotFound}, nil
		}
		return domainauth.CheckResult{}, fmt.Errorf("lookup principal %s: %w", uid, err)
	}
	if user.Disabled {
		return domainauth.CheckResult{Reason: domainauth.ReasonUserNotFound}, nil
	}
	// The provider keeps its own watermark; respect it alongside ours.
	if !user.TokensValidFrom.IsZero() && parsed.IssuedAt.Unix() < user.TokensValidFrom.Unix() {
		return domainauth.CheckResult{Reason: domainauth.ReasonInvalidCookie}, nil
	}

	claims := domainauth.TokenClaims{
		UID:           user.UID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		DisplayName:   user.DisplayName,
		PhotoURL:      user.PhotoURL,
		Role:          user.Role,
		IssuedAt:      domainauth.NewTimestamp(parsed.IssuedAt.Time),
		ExpiresAt:     domainauth.NewTimestamp(parsed.ExpiresAt.Time),
	}

	// The profile store is a soft dependency of the check path; fall back to
	// claims-only data when it is unavailable.
	profile, err := s.profiles.Get(ctx, uid)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Warn("profile read failed during session check, using claims only",
				"uid", uid, "error", err)
		}
		profile = nil
	}

	merged := domainauth.MergeUser(claims, profile)
	return domainauth.CheckResult{Authenticated: true, User: &merged}, nil
}

// ClearSession tears down a session. Revocation is best effort; teardown
// reports success even when the artifact is absent or malformed.
func (s *SessionService) ClearSession(ctx context.Context, cookie string) {
	if cookie == "" {
		return
	}

	now := s.timeProv.Now()
	parsed, err := s.codec.Parse(cookie, now)
	if err != nil {
		return
	}
	uid := parsed.UID()

	if err := s.revocations.Revoke(ctx, uid, now); err != nil {
		s.logger.Warn("failed to record session revocation", "uid", uid, "error", err)
	}
	if err := s.identity.RevokeSessions(ctx, uid); err != nil {
		s.logger.Warn("failed to revoke provider sessions", "uid", uid, "error", err)
	}
}

// DebugInput describes the request being inspected by DebugSession.
type DebugInput struct {
	UserAgent     string
	SessionCookie string
	RoleCookie    string
}

// DebugReport is a diagnostic snapshot of the session state on a request.
// It never mutates state and is intended for humans, not application logic.
type DebugReport struct {
	UserAgent        string    `json:"userAgent"`
	HasSessionCookie bool      `json:"hasSessionCookie"`
	HasRoleCookie    bool      `json:"hasRoleCookie"`
	SessionValid     bool      `json:"sessionValid"`
	Revoked          bool      `json:"revoked,omitempty"`
	UID              string    `json:"uid,omitempty"`
	Role             string    `json:"role,omitempty"`
	ExpiresAt        time.Time `json:"expiresAt,omitzero"`
	CheckedAt        time.Time `json:"checkedAt"`
}

// DebugSession inspects the request's session cookies without side effects.
func (s *SessionService) DebugSession(ctx context.Context, input DebugInput) DebugReport {
	now := s.timeProv.Now()
	report := DebugReport{
		UserAgent:        input.UserAgent,
		HasSessionCookie: input.SessionCookie != "",
		HasRoleCookie:    input.RoleCookie != "",
		CheckedAt:        now,
	}
	if input.SessionCookie == "" {
		return report
	}

	parsed, err := s.codec.Parse(input.SessionCookie, now)
	if err != nil {
		return report
	}
	report.UID = parsed.UID()
	report.Role = parsed.Role
	report.ExpiresAt = parsed.ExpiresAt.Time

	revoked, err := s.isRevoked(ctx, parsed.UID(), parsed.IssuedAt.Time)
	if err == nil && revoked {
		report.Revoked = true
		return report
	}
	report.SessionValid = true
	return report
}
