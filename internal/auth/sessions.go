package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/metrics"
)

// DefaultSessionTTL is how long an unused session survives.
const DefaultSessionTTL = 12 * time.Hour

// Session is a signed-in dashboard session.
type Session struct {
	ID           string
	AccessToken  string
	RefreshToken string
	Subject      string
	Email        string
	ExpiresAt    time.Time // access token expiry, zero when unknown
	CreatedAt    time.Time
	LastUsed     time.Time
}

// Context converts the session into its request-context form.
func (s Session) Context() domain.ContextSession {
	return domain.ContextSession{ID: s.ID, AccessToken: s.AccessToken, Subject: s.Subject, Email: s.Email}
}

// Sessions is the in-memory registry of signed-in sessions. Every change is
// published on the broker.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	broker   *Broker
	ttl      time.Duration
	now      func() time.Time
}

// NewSessions creates a registry that publishes on broker. ttl <= 0 selects
// DefaultSessionTTL.
func NewSessions(broker *Broker, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		sessions: make(map[string]*Session),
		broker:   broker,
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL is how long an unused session survives.
func (s *Sessions) TTL() time.Duration { return s.ttl }

// Create registers a new session and publishes EventSignedIn.
func (s *Sessions) Create(accessToken, refreshToken, subject, email string, expiresAt time.Time) Session {
	now := s.now()
	sess := &Session{
		ID:           uuid.NewString(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Subject:      subject,
		Email:        email,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
		LastUsed:     now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SetActiveSessions(n)
	s.broker.Publish(Event{Type: EventSignedIn, SessionID: sess.ID, At: now})
	return *sess
}

// Get returns the session and marks it used.
func (s *Sessions) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	sess.LastUsed = s.now()
	return *sess, true
}

// Refresh swaps the session's tokens and publishes EventTokenRefreshed.
func (s *Sessions) Refresh(id, accessToken, refreshToken string, expiresAt time.Time) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		sess.AccessToken = accessToken
		if refreshToken != "" {
			sess.RefreshToken = refreshToken
		}
		sess.ExpiresAt = expiresAt
		sess.LastUsed = s.now()
	}
	s.mu.Unlock()

	if !ok {
		return domain.ErrNotFound("session %q not found", id)
	}
	s.broker.Publish(Event{Type: EventTokenRefreshed, SessionID: id})
	return nil
}

// Delete removes the session and publishes EventSignedOut. It reports whether
// the session existed.
func (s *Sessions) Delete(id string) (Session, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return Session{}, false
	}
	metrics.SetActiveSessions(n)
	s.broker.Publish(Event{Type: EventSignedOut, SessionID: id})
	return *sess, true
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ReapIdle signs out sessions unused for longer than the TTL until ctx ends.
// Run it in a background goroutine.
func (s *Sessions) ReapIdle(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reapOnce()
		}
	}
}

func (s *Sessions) reapOnce() {
	s.mu.Lock()
	var stale []string
	cutoff := s.now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.LastUsed.Before(cutoff) {
			stale = append(stale, id)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if len(stale) == 0 {
		return
	}
	metrics.SetActiveSessions(n)
	// Publish outside the lock.
	for _, id := range stale {
		s.broker.Publish(Event{Type: EventSignedOut, SessionID: id})
	}
}

// CloseAll signs out every session. Called on server shutdown.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	metrics.SetActiveSessions(0)
	for _, id := range ids {
		s.broker.Publish(Event{Type: EventSignedOut, SessionID: id})
	}
}
