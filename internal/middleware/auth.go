package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"admin-dashboard/internal/auth"
	"admin-dashboard/internal/domain"
)

// SessionCookie carries the dashboard session id for the UI.
const SessionCookie = "dashboard_session"

// Authenticate attaches a domain.ContextSession to the request when the
// caller presents a live session cookie or a Bearer access token. Requests
// with neither continue anonymously. A Bearer token that fails validation is
// rejected with 401; with a nil validator tokens are passed through
// unchecked and the backend decides.
func Authenticate(sessions *auth.Sessions, validator JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
				if sess, ok := sessions.Get(cookie.Value); ok {
					next.ServeHTTP(w, r.WithContext(domain.WithSession(r.Context(), sess.Context())))
					return
				}
			}

			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
				cs := domain.ContextSession{AccessToken: token}
				if validator != nil {
					claims, err := validator.Validate(r.Context(), token)
					if err != nil {
						writeUnauthorized(w, "invalid access token")
						return
					}
					cs.Subject = claims.Subject
					if claims.Email != nil {
						cs.Email = *claims.Email
					}
				}
				next.ServeHTTP(w, r.WithContext(domain.WithSession(r.Context(), cs)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession sends requests without a session to onMissing.
func RequireSession(onMissing http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := domain.SessionFromContext(r.Context()); !ok {
				onMissing(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Unauthorized is the JSON 401 handler used with RequireSession on the API.
func Unauthorized(w http.ResponseWriter, _ *http.Request) {
	writeUnauthorized(w, "unauthorized: sign in or provide a valid Bearer access token")
}

// SessionToken returns the access token of the request's session, or "".
func SessionToken(ctx context.Context) string {
	s, _ := domain.SessionFromContext(ctx)
	return s.AccessToken
}

// TokenPrincipalSource resolves principals by validating the access token
// found by tokenFn locally. Missing or invalid tokens mean nobody is signed in.
func TokenPrincipalSource(validator JWTValidator, tokenFn func(context.Context) string) domain.PrincipalSource {
	return domain.PrincipalSourceFunc(func(ctx context.Context) (*domain.Principal, error) {
		token := tokenFn(ctx)
		if token == "" {
			return nil, nil
		}
		claims, err := validator.Validate(ctx, token)
		if err != nil {
			return nil, nil //nolint:nilerr // an invalid token is an anonymous caller
		}
		return &domain.Principal{ID: claims.Subject, Email: claims.Email}, nil
	})
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    401,
		"message": msg,
	})
}

// SessionLookup returns the caller's session.
type SessionLookup func(ctx context.Context) (domain.ContextSession, bool)

// LiveSession returns a SessionLookup that re-reads cookie sessions from the
// registry, so tokens refreshed or revoked after the request started are
// seen. Bearer-token sessions are returned as they are.
func LiveSession(sessions *auth.Sessions) SessionLookup {
	return func(ctx context.Context) (domain.ContextSession, bool) {
		cs, ok := domain.SessionFromContext(ctx)
		if !ok || cs.ID == "" {
			return cs, ok
		}
		sess, ok := sessions.Get(cs.ID)
		if !ok {
			return domain.ContextSession{}, false
		}
		return sess.Context(), true
	}
}

// Token adapts a SessionLookup into an access-token getter.
func (l SessionLookup) Token(ctx context.Context) string {
	s, _ := l(ctx)
	return s.AccessToken
}

// SessionPrincipalSource trusts the subject recorded on the caller's
// session. It serves deployments without a token validator, where sign-in
// already established who the caller is.
func SessionPrincipalSource(lookup SessionLookup) domain.PrincipalSource {
	return domain.PrincipalSourceFunc(func(ctx context.Context) (*domain.Principal, error) {
		s, ok := lookup(ctx)
		if !ok || s.Subject == "" {
			return nil, nil
		}
		p := &domain.Principal{ID: s.Subject}
		if s.Email != "" {
			email := s.Email
			p.Email = &email
		}
		return p, nil
	})
}
