package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	apperrors "github.com/quizforge/sessiond/internal/errors"
)

const sessionTokenIssuer = "sessiond"

// minSecretLen guards against accidentally running with a trivial HMAC key.
const minSecretLen = 32

// SessionClaims is the payload of a minted session artifact. The artifact is
// deliberately small: identity details are re-fetched from the provider on
// every check so a stale artifact cannot pin outdated data.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UID returns the principal id the artifact was minted for.
func (c *SessionClaims) UID() string { return c.Subject }

// TokenCodec mints and parses signed session artifacts. Artifacts are
// HMAC-signed and verified locally; revocation is handled separately via the
// per-principal watermark.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec constructs a codec with the given signing secret and artifact
// validity window.
func NewTokenCodec(secret []byte, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("session secret must be at least %d bytes, got %d", minSecretLen, len(secret))
	}
	if ttl <= 0 {
		return nil, errors.New("session TTL must be positive")
	}
	return &TokenCodec{secret: secret, ttl: ttl}, nil
}

// TTL returns the validity window applied to minted artifacts.
func (tc *TokenCodec) TTL() time.Duration { return tc.ttl }

// Mint issues a new session artifact for uid with the given role.
func (tc *TokenCodec) Mint(uid string, role domainauth.Role, now time.Time) (string, error) {
	if uid == "" {
		return "", apperrors.Validation("uid is required")
	}
	now = now.UTC()
	claims := SessionClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionTokenIssuer,
			Subject:   uid,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tc.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry of a session artifact relative to
// now and returns its claims. Any failure maps to an invalid-cookie error.
func (tc *TokenCodec) Parse(raw string, now time.Time) (*SessionClaims, error) {
	if raw == "" {
		return nil, apperrors.InvalidCookie(errors.New("empty session token"))
	}

	var claims SessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(token *jwt.Token) (any, error) {
			return tc.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, apperrors.InvalidCookie(err)
	}
	if claims.Subject == "" {
		return nil, apperrors.InvalidCookie(errors.New("session token missing subject"))
	}
	// WithIssuedAt only validates iat when present; callers rely on it being set.
	if claims.IssuedAt == nil {
		return nil, apperrors.InvalidCookie(errors.New("session token missing issued-at"))
	}
	return &claims, nil
}
