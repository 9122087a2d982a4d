package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	domainauth "github.com/quizforge/sessiond/internal/domain/auth"
	apperrors "github.com/quizforge/sessiond/internal/errors"
)

// Per-operation timeouts. Every call carries an explicit deadline; a fired
// deadline surfaces as a typed timeout, never a hang.
const (
	DefaultCreateTimeout = 8 * time.Second
	DefaultCheckTimeout  = 5 * time.Second
	DefaultDeleteTimeout = 3 * time.Second
)

// SessionClientOptions configures a SessionClient.
type SessionClientOptions struct {
	BaseURL string
	// HTTPClient carries the cookie jar holding the session cookies. Nil
	// gets a fresh client with an in-memory jar.
	HTTPClient *http.Client
	Logger     *slog.Logger

	CreateTimeout time.Duration
	CheckTimeout  time.Duration
	DeleteTimeout time.Duration
}

// SessionClient talks to the session endpoints on behalf of one principal.
// The embedded cookie jar plays the browser's role of carrying the session
// cookies between calls.
type SessionClient struct {
	baseURL string
	hc      *http.Client
	logger  *slog.Logger

	createTimeout time.Duration
	checkTimeout  time.Duration
	deleteTimeout time.Duration
}

// NewSessionClient constructs a SessionClient.
func NewSessionClient(opts SessionClientOptions) (*SessionClient, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("session client: base URL is required")
	}

	hc := opts.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("session client: cookie jar: %w", err)
		}
		hc = &http.Client{Jar: jar}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &SessionClient{
		baseURL:       opts.BaseURL,
		hc:            hc,
		logger:        logger,
		createTimeout: opts.CreateTimeout,
		checkTimeout:  opts.CheckTimeout,
		deleteTimeout: opts.DeleteTimeout,
	}
	if c.createTimeout <= 0 {
		c.createTimeout = DefaultCreateTimeout
	}
	if c.checkTimeout <= 0 {
		c.checkTimeout = DefaultCheckTimeout
	}
	if c.deleteTimeout <= 0 {
		c.deleteTimeout = DefaultDeleteTimeout
	}
	return c, nil
}

// CreateSessionResponse is the server's answer to a session creation.
type CreateSessionResponse struct {
	Success bool            `json:"success"`
	Role    domainauth.Role `json:"role"`
	UID     string          `json:"uid"`
}

// CreateSession exchanges an identity token for the session cookies.
func (c *SessionClient) CreateSession(ctx context.Context, idToken string) (*CreateSessionResponse, error) {
	if idToken == "" {
		return nil, apperrors.Validation("missing ID token")
	}

	ctx, cancel := context.WithTimeout(ctx, c.createTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"idToken": idToken})
	if err != nil {
		return nil, fmt.Errorf("encode create request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/auth/session", body)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, c.readError(resp)
	}

	var out CreateSessionResponse
	if err := decodeBody(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// checkSessionResponse mirrors the check endpoint's wire shape.
type checkSessionResponse struct {
	IsAuthenticated bool                     `json:"isAuthenticated"`
	Reason          domainauth.FailureReason `json:"reason"`
	User            *domainauth.SessionUser  `json:"user"`
	ErrorText       string                   `json:"error"`
	Message         string                   `json:"message"`
}

// CheckSession validates the current session cookies against the server.
// A 401 is a normal outcome carrying a typed reason; transport and decoding
// failures return a typed error so callers can avoid hard redirects on
// transient trouble.
func (c *SessionClient) CheckSession(ctx context.Context) (domainauth.CheckResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "/api/auth/session/check", nil)
	if err != nil {
		return domainauth.CheckResult{}, err
	}
	defer closeBody(resp)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnauthorized:
		var out checkSessionResponse
		if err := decodeBody(resp, &out); err != nil {
			return domainauth.CheckResult{}, err
		}
		if out.IsAuthenticated {
			return domainauth.CheckResult{Authenticated: true, User: out.User}, nil
		}
		reason := out.Reason
		if reason == "" {
			reason = domainauth.ReasonInvalidCookie
		}
		return domainauth.CheckResult{Reason: reason}, nil
	default:
		return domainauth.CheckResult{}, c.readError(resp)
	}
}

// ClearSession tears down the server session and drops the cookies. Safe to
// call when no session exists.
func (c *SessionClient) ClearSession(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.deleteTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodDelete, "/api/auth/session", nil)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return c.readError(resp)
	}
	return nil
}

func (c *SessionClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	return resp, nil
}

// classifyTransportError maps transport failures onto the typed taxonomy.
func classifyTransportError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "session request timed out")
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "session request canceled")
	default:
		return apperrors.Wrap(err, apperrors.ErrCodeNetwork, "session request failed")
	}
}

func decodeBody(resp *http.Response, dst any) error {
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeParse, "decode session response")
	}
	return nil
}

// readError turns a non-OK response into a typed error, preserving the
// server's code when the body parses.
func (c *SessionClient) readError(resp *http.Response) error {
	var wire struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeParse, "session endpoint returned %d", resp.StatusCode)
	}

	code := apperrors.ErrCodeInternal
	if resp.StatusCode == http.StatusUnauthorized {
		code = apperrors.ErrCodeInvalidToken
	}
	appErr := &apperrors.AppError{
		Code:         code,
		Message:      fmt.Sprintf("%s: %s", wire.Error, wire.Message),
		ProviderCode: wire.Code,
	}
	return appErr
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
