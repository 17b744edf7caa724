package rowstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admin-dashboard/internal/domain"
)

// fakeAuth serves the /auth/v1 endpoints for a single user.
func fakeAuth(t *testing.T) *AuthClient {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good-token":
			_, _ = w.Write([]byte(`{"id":"u1","email":"ada@example.com"}`))
		case "Bearer broken-token":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"msg":"database unavailable"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
		}
	})
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		grant := r.URL.Query().Get("grant_type")
		ok := (grant == "password" && body["email"] == "ada@example.com" && body["password"] == "secret") ||
			(grant == "refresh_token" && body["refresh_token"] == "refresh-1")
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"good-token","refresh_token":"refresh-2","expires_in":3600,"user":{"id":"u1","email":"ada@example.com"}}`))
	})
	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewAuthClient(srv.URL, "anon-key", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestAuthClient_User(t *testing.T) {
	t.Parallel()
	c := fakeAuth(t)
	ctx := context.Background()

	p, err := c.User(ctx, "good-token")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "u1", p.ID)
	require.NotNil(t, p.Email)
	assert.Equal(t, "ada@example.com", *p.Email)

	p, err = c.User(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = c.User(ctx, "expired-token")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = c.User(ctx, "broken-token")
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Equal(t, KindQuery, KindOf(err))
	assert.Contains(t, err.Error(), "database unavailable")
}

func TestAuthClient_SignIn(t *testing.T) {
	t.Parallel()
	c := fakeAuth(t)
	ctx := context.Background()

	sess, err := c.SignInWithPassword(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "good-token", sess.AccessToken)
	assert.Equal(t, "refresh-2", sess.RefreshToken)
	assert.Equal(t, "u1", sess.Principal.ID)
	assert.Equal(t, time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC), sess.ExpiresAt)

	_, err = c.SignInWithPassword(ctx, "ada@example.com", "wrong")
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "Invalid login credentials", denied.Message)

	_, err = c.SignInWithPassword(ctx, "", "")
	var invalid *domain.ValidationError
	require.ErrorAs(t, err, &invalid)
}

func TestAuthClient_RefreshAndSignOut(t *testing.T) {
	t.Parallel()
	c := fakeAuth(t)
	ctx := context.Background()

	sess, err := c.Refresh(ctx, "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "good-token", sess.AccessToken)

	_, err = c.Refresh(ctx, "refresh-stale")
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)

	require.NoError(t, c.SignOut(ctx, "good-token"))
	require.NoError(t, c.SignOut(ctx, "already-revoked"))
	require.NoError(t, c.SignOut(ctx, ""))
}

func TestAuthClient_PrincipalSource(t *testing.T) {
	t.Parallel()
	c := fakeAuth(t)

	type tokenKey struct{}
	src := c.PrincipalSource(func(ctx context.Context) string {
		tok, _ := ctx.Value(tokenKey{}).(string)
		return tok
	})

	p, err := src.CurrentPrincipal(context.WithValue(context.Background(), tokenKey{}, "good-token"))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "u1", p.ID)

	p, err = src.CurrentPrincipal(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)
}
