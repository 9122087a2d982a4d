package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	apperrors "github.com/quizforge/sessiond/internal/errors"
)

// discoveryDocument is the subset of the OIDC discovery payload the tests
// serve.
type discoveryDocument struct {
	Issuer        string `json:"issuer"`
	AuthEndpoint  string `json:"authorization_endpoint"`
	TokenEndpoint string `json:"token_endpoint"`
	JwksURI       string `json:"jwks_uri"`
}

// testBackend bundles a fake issuer (discovery + token endpoint) and a fake
// admin API on a single server.
type testBackend struct {
	srv *httptest.Server

	adminRequests []string // "METHOD path" in order
	adminAuth     string   // last Authorization header seen
	adminHandler  http.HandlerFunc
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	b := &testBackend{}
	mux := http.NewServeMux()

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(discoveryDocument{
			Issuer:        b.srv.URL,
			AuthEndpoint:  b.srv.URL + "/auth",
			TokenEndpoint: b.srv.URL + "/token",
			JwksURI:       b.srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "admin-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/admin/", func(w http.ResponseWriter, r *http.Request) {
		b.adminRequests = append(b.adminRequests, r.Method+" "+r.URL.Path)
		b.adminAuth = r.Header.Get("Authorization")
		if b.adminHandler != nil {
			b.adminHandler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func newTestProvider(t *testing.T, b *testBackend) *Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), ProviderConfig{
		IssuerURL:    b.srv.URL,
		Audience:     "sessiond-app",
		AdminBaseURL: b.srv.URL + "/admin",
		ClientID:     "svc-client",
		ClientSecret: "svc-secret",
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{
			name: "missing issuer",
			config: ProviderConfig{
				Audience: "aud", AdminBaseURL: "http://x", ClientID: "c", ClientSecret: "s",
			},
			errMsg: "issuer URL is required",
		},
		{
			name: "missing audience",
			config: ProviderConfig{
				IssuerURL: "http://x", AdminBaseURL: "http://x", ClientID: "c", ClientSecret: "s",
			},
			errMsg: "audience is required",
		},
		{
			name: "missing admin base URL",
			config: ProviderConfig{
				IssuerURL: "http://x", Audience: "aud", ClientID: "c", ClientSecret: "s",
			},
			errMsg: "admin base URL is required",
		},
		{
			name: "missing credentials",
			config: ProviderConfig{
				IssuerURL: "http://x", Audience: "aud", AdminBaseURL: "http://x",
			},
			errMsg: "client credentials are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestVerifyIDToken_Malformed(t *testing.T) {
	b := newTestBackend(t)
	p := newTestProvider(t, b)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := p.VerifyIDToken(context.Background(), raw)
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidToken(err))
		assert.Equal(t, "auth/invalid-id-token", apperrors.GetProviderCode(err))
	}
}

func TestGetUser(t *testing.T) {
	b := newTestBackend(t)
	b.adminHandler = func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(userResource{
			UID:             "uid-1",
			Email:           "a@example.com",
			EmailVerified:   true,
			DisplayName:     "Ada",
			Disabled:        false,
			CustomClaims:    map[string]string{"role": "admin"},
			TokensValidFrom: 1740000000,
		})
	}
	p := newTestProvider(t, b)

	record, err := p.GetUser(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", record.UID)
	assert.Equal(t, "a@example.com", record.Email)
	assert.Equal(t, domainauth.RoleAdmin, record.Role)
	assert.Equal(t, int64(1740000000), record.TokensValidFrom.Unix())

	require.Equal(t, []string{"GET /admin/v1/users/uid-1"}, b.adminRequests)
	assert.Equal(t, "Bearer admin-access-token", b.adminAuth)
}

func TestGetUser_NotFound(t *testing.T) {
	b := newTestBackend(t)
	p := newTestProvider(t, b)

	_, err := p.GetUser(context.Background(), "uid-ghost")
	assert.True(t, apperrors.IsPrincipalNotFound(err))
}

func TestSetRoleClaim(t *testing.T) {
	b := newTestBackend(t)
	var gotBody map[string]map[string]string
	b.adminHandler = func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}
	p := newTestProvider(t, b)

	require.NoError(t, p.SetRoleClaim(context.Background(), "uid-1", domainauth.RoleAdmin))
	assert.Equal(t, []string{"PATCH /admin/v1/users/uid-1/claims"}, b.adminRequests)
	assert.Equal(t, "admin", gotBody["customClaims"]["role"])
}

func TestRevokeSessions(t *testing.T) {
	b := newTestBackend(t)
	b.adminHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	p := newTestProvider(t, b)

	require.NoError(t, p.RevokeSessions(context.Background(), "uid-1"))
	assert.Equal(t, []string{"POST /admin/v1/users/uid-1/revoke"}, b.adminRequests)

	b.adminHandler = nil // back to 404s
	err := p.RevokeSessions(context.Background(), "uid-ghost")
	assert.True(t, apperrors.IsPrincipalNotFound(err))
}

func TestAdminStatusErrorSurfacesBody(t *testing.T) {
	b := newTestBackend(t)
	b.adminHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream sad"))
	}
	p := newTestProvider(t, b)

	_, err := p.GetUser(context.Background(), "uid-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream sad")
}
