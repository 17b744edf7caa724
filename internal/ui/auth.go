package ui

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/middleware"
)

// refreshWindow is how close to expiry an access token is refreshed.
const refreshWindow = time.Minute

// Sign-in methods offered on the login form.
const (
	loginPassword = "password"
	loginToken    = "token"
	loginDemo     = "demo"
)

func (h *Handler) loginMethods() []string {
	var methods []string
	if h.AuthClient != nil {
		methods = append(methods, loginPassword)
	}
	if h.Validator != nil && !h.Production {
		methods = append(methods, loginToken)
	}
	if h.DemoLogin {
		methods = append(methods, loginDemo)
	}
	return methods
}

// LoginPage renders the sign-in form, or redirects when already signed in.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := domain.SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/ui", http.StatusSeeOther)
		return
	}
	renderHTML(w, http.StatusOK, loginPage(loginPageData{
		Error:   strings.TrimSpace(r.URL.Query().Get("error")),
		Methods: h.loginMethods(),
		CSRF:    csrfFieldProvider(r),
	}))
}

// LoginSubmit signs the user in and sets the session cookie.
func (h *Handler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectLoginError(w, r, "invalid form")
		return
	}

	var (
		created sessionParams
		err     error
	)
	switch method := formString(r.Form, "method"); method {
	case loginPassword:
		created, err = h.signInPassword(r.Context(), formString(r.Form, "email"), r.Form.Get("password"))
	case loginToken:
		created, err = h.signInToken(r.Context(), formString(r.Form, "token"))
	case loginDemo:
		created, err = h.signInDemo(r.Context(), formString(r.Form, "email"))
	default:
		err = domain.ErrValidation("unsupported sign-in method %q", method)
	}
	if err != nil {
		h.Logger.Info("sign-in rejected", "error", err)
		redirectLoginError(w, r, signInMessage(err))
		return
	}

	sess := h.Sessions.Create(created.access, created.refresh, created.subject, created.email, created.expiresAt)
	h.setSessionCookie(w, sess.ID, h.Sessions.TTL())
	h.Logger.Info("signed in", "session", sess.ID, "subject", sess.Subject)
	http.Redirect(w, r, "/ui", http.StatusSeeOther)
}

type sessionParams struct {
	access, refresh string
	subject, email  string
	expiresAt       time.Time
}

func (h *Handler) signInPassword(ctx context.Context, email, password string) (sessionParams, error) {
	if h.AuthClient == nil {
		return sessionParams{}, domain.ErrValidation("password sign-in is not available")
	}
	s, err := h.AuthClient.SignInWithPassword(ctx, email, password)
	if err != nil {
		return sessionParams{}, err
	}
	if s.Principal.Email != nil {
		email = *s.Principal.Email
	}
	return sessionParams{
		access:    s.AccessToken,
		refresh:   s.RefreshToken,
		subject:   s.Principal.ID,
		email:     email,
		expiresAt: s.ExpiresAt,
	}, nil
}

func (h *Handler) signInToken(ctx context.Context, token string) (sessionParams, error) {
	if h.Validator == nil || h.Production {
		return sessionParams{}, domain.ErrValidation("token sign-in is not available")
	}
	if token == "" {
		return sessionParams{}, domain.ErrValidation("token is required")
	}
	claims, err := h.Validator.Validate(ctx, token)
	if err != nil {
		return sessionParams{}, domain.ErrAccessDenied("invalid access token")
	}
	p := sessionParams{access: token, subject: claims.Subject}
	if claims.Email != nil {
		p.email = *claims.Email
	}
	if exp, ok := claims.Raw["exp"].(float64); ok {
		p.expiresAt = time.Unix(int64(exp), 0)
	}
	return p, nil
}

func (h *Handler) signInDemo(ctx context.Context, email string) (sessionParams, error) {
	if !h.DemoLogin {
		return sessionParams{}, domain.ErrValidation("demo sign-in is not available")
	}
	if email == "" {
		return sessionParams{}, domain.ErrValidation("email is required")
	}
	var row domain.Profile
	q := domain.Query{Collection: "profiles", Fields: domain.ProfileFields}.With(domain.Eq("email", email))
	found, err := h.Backend.UserStore(ctx).SelectOne(ctx, q, &row)
	if err != nil {
		return sessionParams{}, err
	}
	if !found {
		return sessionParams{}, domain.ErrAccessDenied("no profile with email %s", email)
	}
	return sessionParams{subject: row.ID, email: email}, nil
}

func signInMessage(err error) string {
	var denied *domain.AccessDeniedError
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &denied):
		return denied.Error()
	case errors.As(err, &validation):
		return validation.Error()
	default:
		return "sign-in failed, try again later"
	}
}

// Logout revokes the backend session, drops the dashboard session, and
// clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil && cookie.Value != "" {
		if sess, ok := h.Sessions.Delete(cookie.Value); ok && h.AuthClient != nil && sess.AccessToken != "" {
			if err := h.AuthClient.SignOut(r.Context(), sess.AccessToken); err != nil {
				h.Logger.Warn("backend sign-out failed", "session", sess.ID, "error", err)
			}
		}
	}
	h.setSessionCookie(w, "", -1)
	http.Redirect(w, r, "/ui/login", http.StatusSeeOther)
}

// RefreshSession renews the session's access token shortly before it
// expires. A failed refresh ends the session.
func (h *Handler) RefreshSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs, _ := domain.SessionFromContext(r.Context())
		if h.AuthClient == nil || cs.ID == "" {
			next.ServeHTTP(w, r)
			return
		}
		sess, ok := h.Sessions.Get(cs.ID)
		if !ok || sess.RefreshToken == "" || sess.ExpiresAt.IsZero() || time.Until(sess.ExpiresAt) > refreshWindow {
			next.ServeHTTP(w, r)
			return
		}

		renewed, err := h.AuthClient.Refresh(r.Context(), sess.RefreshToken)
		if err != nil {
			h.Logger.Warn("session refresh failed", "session", sess.ID, "error", err)
			h.Sessions.Delete(sess.ID)
			h.setSessionCookie(w, "", -1)
			RedirectToLogin(w, r)
			return
		}
		if err := h.Sessions.Refresh(sess.ID, renewed.AccessToken, renewed.RefreshToken, renewed.ExpiresAt); err != nil {
			RedirectToLogin(w, r)
			return
		}
		cs.AccessToken = renewed.AccessToken
		next.ServeHTTP(w, r.WithContext(domain.WithSession(r.Context(), cs)))
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Production,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl < 0 {
		c.MaxAge = -1
	} else {
		c.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, c)
}

func redirectLoginError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/ui/login?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

// RedirectToLogin sends UI requests to the sign-in page and answers
// everything else with 401.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/ui") {
		http.Redirect(w, r, "/ui/login", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusUnauthorized)
}
