package identity

// Package identity implements the server-side identity provider surface
// against an OIDC-compatible platform: ID token verification via the
// provider's JWKS, and principal management through its admin REST API
// authenticated with client credentials.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	apperrors "github.com/quizforge/sessiond/internal/errors"
	"github.com/quizforge/sessiond/internal/ports"
)

// ProviderConfig holds configuration for the identity provider.
type ProviderConfig struct {
	// IssuerURL is the OIDC issuer; discovery and JWKS hang off it.
	IssuerURL string
	// Audience is the expected aud of incoming ID tokens.
	Audience string

	// AdminBaseURL is the provider's admin REST API.
	AdminBaseURL string
	// ClientID/ClientSecret authenticate admin API calls (client
	// credentials grant against TokenURL).
	ClientID     string
	ClientSecret string
	TokenURL     string

	HTTPClient *http.Client // optional, defaults to a 30s-timeout client
}

// Provider implements ports.IdentityAdmin.
type Provider struct {
	verifier *gooidc.IDTokenVerifier
	adminURL string
	admin    *http.Client
}

var _ ports.IdentityAdmin = (*Provider)(nil)

// NewProvider creates an identity provider. It performs a single discovery
// fetch against the issuer.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}
	if cfg.AdminBaseURL == "" {
		return nil, errors.New("admin base URL is required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("client credentials are required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	discoveryCtx := context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	op, err := gooidc.NewProvider(discoveryCtx, strings.TrimSuffix(cfg.IssuerURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = op.Endpoint().TokenURL
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
	}

	return &Provider{
		verifier: op.Verifier(&gooidc.Config{ClientID: cfg.Audience}),
		adminURL: strings.TrimSuffix(cfg.AdminBaseURL, "/"),
		admin:    cc.Client(context.WithValue(ctx, oauth2.HTTPClient, httpClient)),
	}, nil
}

// idTokenClaims is the claim shape minted by the identity platform.
type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Role          string `json:"role"`
}

func (p *Provider) VerifyIDToken(ctx context.Context, idToken string) (domainauth.TokenClaims, error) {
	if idToken == "" {
		return domainauth.TokenClaims{}, apperrors.InvalidToken("auth/invalid-id-token",
			errors.New("empty token"))
	}

	tok, err := p.verifier.Verify(ctx, idToken)
	if err != nil {
		return domainauth.TokenClaims{}, apperrors.InvalidToken(verifyFailureCode(err), err)
	}

	var claims idTokenClaims
	if err := tok.Claims(&claims); err != nil {
		return domainauth.TokenClaims{}, apperrors.InvalidToken("auth/invalid-id-token",
			fmt.Errorf("decode claims: %w", err))
	}

	return domainauth.TokenClaims{
		UID:           tok.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		DisplayName:   claims.Name,
		PhotoURL:      claims.Picture,
		Role:          domainauth.ParseRole(claims.Role),
		IssuedAt:      domainauth.NewTimestamp(tok.IssuedAt),
		ExpiresAt:     domainauth.NewTimestamp(tok.Expiry),
	}, nil
}

// verifyFailureCode maps verifier errors onto stable provider codes.
func verifyFailureCode(err error) string {
	var expired *gooidc.TokenExpiredError
	if errors.As(err, &expired) {
		return "auth/id-token-expired"
	}
	return "auth/invalid-id-token"
}

// userResource is the admin API's principal record.
type userResource struct {
	UID             string            `json:"uid"`
	Email           string            `json:"email"`
	EmailVerified   bool              `json:"emailVerified"`
	DisplayName     string            `json:"displayName"`
	PhotoURL        string            `json:"photoUrl"`
	Disabled        bool              `json:"disabled"`
	CustomClaims    map[string]string `json:"customClaims"`
	TokensValidFrom int64             `json:"tokensValidFromSeconds"`
}

func (p *Provider) GetUser(ctx context.Context, uid string) (domainauth.UserRecord, error) {
	var user userResource
	err := p.call(ctx, http.MethodGet, "/v1/users/"+uid, nil, &user)
	if err != nil {
		if isAdminNotFound(err) {
			return domainauth.UserRecord{}, apperrors.PrincipalNotFound(uid)
		}
		return domainauth.UserRecord{}, err
	}

	record := domainauth.UserRecord{
		UID:           user.UID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		DisplayName:   user.DisplayName,
		PhotoURL:      user.PhotoURL,
		Disabled:      user.Disabled,
		Role:          domainauth.ParseRole(user.CustomClaims["role"]),
	}
	if user.TokensValidFrom > 0 {
		record.TokensValidFrom = domainauth.FromUnix(user.TokensValidFrom)
	}
	return record, nil
}

func (p *Provider) SetRoleClaim(ctx context.Context, uid string, role domainauth.Role) error {
	body := map[string]any{"customClaims": map[string]string{"role": string(role)}}
	err := p.call(ctx, http.MethodPatch, "/v1/users/"+uid+"/claims", body, nil)
	if isAdminNotFound(err) {
		return apperrors.PrincipalNotFound(uid)
	}
	return err
}

func (p *Provider) RevokeSessions(ctx context.Context, uid string) error {
	err := p.call(ctx, http.MethodPost, "/v1/users/"+uid+"/revoke", nil, nil)
	if isAdminNotFound(err) {
		return apperrors.PrincipalNotFound(uid)
	}
	return err
}

// adminStatusError carries a non-2xx admin API status.
type adminStatusError struct {
	status int
	body   string
}

func (e *adminStatusError) Error() string {
	return fmt.Sprintf("admin api status %d: %s", e.status, e.body)
}

func isAdminNotFound(err error) bool {
	var se *adminStatusError
	return errors.As(err, &se) && se.status == http.StatusNotFound
}

func (p *Provider) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode admin request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.adminURL+path, reader)
	if err != nil {
		return fmt.Errorf("build admin request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.admin.Do(req)
	if err != nil {
		return fmt.Errorf("admin api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &adminStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(payload))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode admin response: %w", err)
	}
	return nil
}
