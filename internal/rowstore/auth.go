package rowstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"admin-dashboard/internal/domain"
)

// AuthSession is the token pair issued by the backend's auth API.
type AuthSession struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Principal    domain.Principal
}

// AuthClient talks to the backend's auth API (/auth/v1).
type AuthClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuthClient creates an auth client authenticated with the public API key.
func NewAuthClient(baseURL, apiKey string, opts ...Option) (*AuthClient, error) {
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, domain.ErrConfig("BACKEND_ANON_KEY", "API key is required")
	}
	o := buildOptions(opts)
	return &AuthClient{
		baseURL:    base,
		apiKey:     apiKey,
		httpClient: o.httpClient,
		logger:     o.logger,
		now:        time.Now,
	}, nil
}

type authUser struct {
	ID    string  `json:"id"`
	Email *string `json:"email"`
}

func (u authUser) principal() domain.Principal {
	return domain.Principal{ID: u.ID, Email: u.Email}
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	User         authUser `json:"user"`
}

// User returns the principal that owns accessToken. An empty, expired, or
// revoked token yields (nil, nil): nobody is signed in.
func (c *AuthClient) User(ctx context.Context, accessToken string) (*domain.Principal, error) {
	if accessToken == "" {
		return nil, nil
	}
	resp, err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, apiError("", resp)
	}

	var u authUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, classify(ctx, "", fmt.Errorf("decode user: %w", err))
	}
	if u.ID == "" {
		return nil, nil
	}
	p := u.principal()
	return &p, nil
}

// SignInWithPassword exchanges email and password for a session. Rejected
// credentials are reported as *domain.AccessDeniedError.
func (c *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error) {
	if email == "" || password == "" {
		return nil, domain.ErrValidation("email and password are required")
	}
	return c.token(ctx, "password", map[string]string{"email": email, "password": password})
}

// Refresh exchanges a refresh token for a new session.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (*AuthSession, error) {
	if refreshToken == "" {
		return nil, domain.ErrValidation("refresh token is required")
	}
	return c.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

// SignOut revokes the session behind accessToken. Revoking an already invalid
// token is not an error.
func (c *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError("", resp)
	}
	return nil
}

// PrincipalSource returns a PrincipalSource that resolves the token found by
// tokenFn on each call.
func (c *AuthClient) PrincipalSource(tokenFn func(context.Context) string) domain.PrincipalSource {
	return domain.PrincipalSourceFunc(func(ctx context.Context) (*domain.Principal, error) {
		return c.User(ctx, tokenFn(ctx))
	})
}

func (c *AuthClient) token(ctx context.Context, grant string, body map[string]string) (*AuthSession, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode token request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type="+grant, "", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		qe, _ := apiError("", resp).(*QueryError)
		return nil, domain.ErrAccessDenied("%s", qe.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError("", resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, classify(ctx, "", fmt.Errorf("decode token: %w", err))
	}
	if tr.AccessToken == "" {
		return nil, &QueryError{Kind: KindUnknown, Message: "auth response carried no access token"}
	}
	c.logger.Debug("auth token issued", "grant", grant, "user_id", tr.User.ID)
	return &AuthSession{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    c.now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		Principal:    tr.User.principal(),
	}, nil
}

func (c *AuthClient) do(ctx context.Context, method, path, bearer string, body []byte) (*http.Response, error) {
	var rdr *bytes.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	var req *http.Request
	var err error
	if rdr != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, classify(ctx, "", err)
	}
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, "", err)
	}
	return resp, nil
}
