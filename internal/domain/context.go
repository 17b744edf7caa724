package domain

import "context"

type sessionKey struct{}

// ContextSession carries the signed-in dashboard session through request context.
type ContextSession struct {
	ID          string // dashboard session id (cookie value)
	AccessToken string // backend access token for row-level security
	Subject     string // principal id from the validated token, if known
	Email       string
}

// WithSession stores a ContextSession in the context.
func WithSession(ctx context.Context, s ContextSession) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext extracts the ContextSession from the context.
func SessionFromContext(ctx context.Context) (ContextSession, bool) {
	s, ok := ctx.Value(sessionKey{}).(ContextSession)
	return s, ok
}
