package ui

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admin-dashboard/internal/auth"
	"admin-dashboard/internal/dashboard"
	"admin-dashboard/internal/db"
	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/middleware"
	"admin-dashboard/internal/rowstore"
)

const adminID = "7f3c2a10-0000-4000-8000-000000000001"

type testUI struct {
	router   http.Handler
	sessions *auth.Sessions
}

func newTestUI(t *testing.T) *testUI {
	t.Helper()
	writeDB, readDB := db.OpenTestSQLite(t)
	require.NoError(t, db.Seed(context.Background(), writeDB))
	store := rowstore.NewSQLiteStore(readDB, nil)

	sessions := auth.NewSessions(auth.NewBroker(nil), time.Hour)
	t.Cleanup(sessions.CloseAll)

	board := dashboard.NewBoard(store, nil)
	board.Start(context.Background())
	t.Cleanup(board.Stop)
	require.NoError(t, board.Refresh(context.Background()))

	backend := &dashboard.Backend{
		Board:      board,
		UserStore:  func(context.Context) domain.RowStore { return store },
		Principals: middleware.SessionPrincipalSource(domain.SessionFromContext),
	}
	h := NewHandler(backend, sessions, nil, nil, true, false, nil)

	r := chi.NewRouter()
	r.Use(middleware.Authenticate(sessions, nil))
	r.Route("/ui", func(r chi.Router) { MountRoutes(r, h) })
	return &testUI{router: r, sessions: sessions}
}

func (u *testUI) signIn(t *testing.T) *http.Cookie {
	t.Helper()
	sess := u.sessions.Create("", "", adminID, "admin@example.com", time.Time{})
	return &http.Cookie{Name: middleware.SessionCookie, Value: sess.ID}
}

func (u *testUI) get(t *testing.T, path string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	u.router.ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec, string(body)
}

func (u *testUI) post(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	form.Set("csrf_token", "tok")
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	u.router.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestPages_RedirectWithoutSession(t *testing.T) {
	t.Parallel()
	u := newTestUI(t)

	for _, path := range []string{"/ui", "/ui/users", "/ui/cities", "/ui/billing"} {
		rec, _ := u.get(t, path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/ui/login", rec.Header().Get("Location"), path)
	}
}

func TestLoginPage(t *testing.T) {
	t.Parallel()
	u := newTestUI(t)

	rec, body := u.get(t, "/ui/login?error=bad+thing")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Error: bad thing")
	assert.Contains(t, body, `value="demo"`)
	assert.NotContains(t, body, `value="password"`)
	assert.NotNil(t, findCookie(rec, csrfCookieName))

	rec, _ = u.get(t, "/ui/login", u.signIn(t))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestDemoLoginAndLogout(t *testing.T) {
	t.Parallel()
	u := newTestUI(t)

	rec := u.post(t, "/ui/login", url.Values{"method": {"demo"}, "email": {"admin@example.com"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/ui", rec.Header().Get("Location"))
	cookie := findCookie(rec, middleware.SessionCookie)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 1, u.sessions.Len())

	rec, body := u.get(t, "/ui", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Signed in as Ada Admin")

	rec = u.post(t, "/ui/logout", url.Values{}, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/ui/login", rec.Header().Get("Location"))
	assert.Equal(t, 0, u.sessions.Len())

	rec, _ = u.get(t, "/ui", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestLoginRejected(t *testing.T) {
	t.Parallel()
	u := newTestUI(t)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{name: "unknown email", form: url.Values{"method": {"demo"}, "email": {"nobody@example.com"}}, want: "no+profile"},
		{name: "password unavailable", form: url.Values{"method": {"password"}, "email": {"a@b.c"}, "password": {"x"}}, want: "not+available"},
		{name: "unknown method", form: url.Values{"method": {"carrier-pigeon"}}, want: "unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := u.post(t, "/ui/login", tt.form)
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/ui/login?error="))
			assert.Contains(t, rec.Header().Get("Location"), tt.want)
		})
	}
	assert.Equal(t, 0, u.sessions.Len())
}

func TestLoginRequiresCSRF(t *testing.T) {
	t.Parallel()
	u := newTestUI(t)

	req := httptest.NewRequest(http.MethodPost, "/ui/login", strings.NewReader("method=demo&email=admin%40example.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	u.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, u.sessions.Len())
}

func TestUsersPage(t *testing.T) {
	t.Parallel()
	u := newTestUI(t)
	cookie := u.signIn(t)

	rec, body := u.get(t, "/ui/users", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, want := range []string{"Ada Admin", "Bob Builder", "Carol Chen", "Dan Doe", "blocked", "data-show"} {
		assert.Contains(t, body, want)
	}

	_, body = u.get(t, "/ui/users?q=CAROL", cookie)
	assert.Contains(t, body, "Carol Chen")
	assert.NotContains(t, body, "Bob Builder")
}

func TestReferenceAndBillingPages(t *testing.T) {
	t.Parallel()
	u := newTestUI(t)
	cookie := u.signIn(t)

	tests := []struct {
		path string
		want []string
	}{
		{path: "/ui/cities", want: []string{"Augsburg", "Bavaria", "48.3705", "Europe/Berlin"}},
		{path: "/ui/states", want: []string{"California", "NY", "DE"}},
		{path: "/ui/billing", want: []string{"INV-2025-0002", "49.00 USD", "paid"}},
		{path: "/ui/quizzes", want: []string{"State Capitals", "geography", "published", "draft"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, body := u.get(t, tt.path, cookie)
			require.Equal(t, http.StatusOK, rec.Code)
			for _, want := range tt.want {
				assert.Contains(t, body, want)
			}
		})
	}
}

func TestStaticStylesheet(t *testing.T) {
	t.Parallel()
	u := newTestUI(t)

	rec, body := u.get(t, uiStylesheetHref())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, ".app-shell")
}
