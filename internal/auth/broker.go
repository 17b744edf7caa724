// Package auth holds the dashboard's auth-state plumbing: a broker that fans
// out sign-in, sign-out, and token refresh events to subscribers, and the
// in-memory session registry that publishes them.
package auth

import (
	"log/slog"
	"sync"
	"time"
)

// EventType names an auth-state change.
type EventType string

// Auth-state change events.
const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
)

// Event is one auth-state change for a session.
type Event struct {
	Type      EventType
	SessionID string
	At        time.Time
}

// subscriberQueue bounds undelivered events per subscription. Consumers only
// care about the latest state, so overflow drops the newest event.
const subscriberQueue = 16

// Broker delivers auth events to subscribers. Each subscription receives its
// callbacks serially on its own goroutine.
type Broker struct {
	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	logger *slog.Logger
}

// NewBroker creates an empty broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subs:   make(map[uint64]*Subscription),
		logger: logger.With("component", "auth-broker"),
	}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	broker    *Broker
	id        uint64
	sessionID string
	fn        func(Event)
	queue     chan Event
	done      chan struct{}
	once      sync.Once
}

// Subscribe registers fn for events of sessionID. An empty sessionID receives
// the events of every session.
func (b *Broker) Subscribe(sessionID string, fn func(Event)) *Subscription {
	b.mu.Lock()
	b.nextID++
	sub := &Subscription{
		broker:    b,
		id:        b.nextID,
		sessionID: sessionID,
		fn:        fn,
		queue:     make(chan Event, subscriberQueue),
		done:      make(chan struct{}),
	}
	b.subs[sub.id] = sub
	b.mu.Unlock()

	go sub.deliver()
	return sub
}

// Publish sends ev to every matching subscription without blocking.
func (b *Broker) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.Lock()
	targets := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.sessionID == "" || s.sessionID == ev.SessionID {
			targets = append(targets, s)
		}
	}
	b.mu.Unlock()

	for _, s := range targets {
		select {
		case s.queue <- ev:
		case <-s.done:
		default:
			b.logger.Warn("auth event dropped, subscriber queue full",
				"event", string(ev.Type), "session_id", ev.SessionID)
		}
	}
}

// Len returns the number of live subscriptions.
func (b *Broker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Unsubscribe stops delivery. Only the first call has an effect; a callback
// already running is allowed to finish.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s.id)
		s.broker.mu.Unlock()
		close(s.done)
	})
}

func (s *Subscription) deliver() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.queue:
			select {
			case <-s.done:
				return
			default:
			}
			s.fn(ev)
		}
	}
}
