// Package identity resolves the signed-in principal into the application's
// profile record and keeps it current across auth-state changes.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/looplab/fsm"

	"admin-dashboard/internal/auth"
	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/metrics"
	"admin-dashboard/internal/rowstore"
)

// Resolver states and events.
const (
	StateResolving = "resolving"
	StateResolved  = "resolved"

	EventResolve = "resolve"
	EventSettle  = "settle"
)

// profileQuery is the single-row lookup run for a principal.
var profileQuery = domain.Query{Collection: "profiles", Fields: domain.ProfileFields}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBroker subscribes the resolver to auth events of sessionID while active.
func WithBroker(b *auth.Broker, sessionID string) Option {
	return func(r *Resolver) {
		r.broker = b
		r.sessionID = sessionID
	}
}

// WithLogger sets the logger for resolution diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// OnSettle registers fn to run after each resolution is applied. fn runs on
// the resolver's worker goroutine and must not call Deactivate.
func OnSettle(fn func(user *domain.Profile)) Option {
	return func(r *Resolver) { r.onSettle = fn }
}

// Resolver tracks the current identity. Resolutions are serialized on one
// worker goroutine; an auth event cancels the lookup in flight and starts a
// new one.
type Resolver struct {
	principals domain.PrincipalSource
	profiles   domain.RowStore
	broker     *auth.Broker
	sessionID  string
	logger     *slog.Logger
	onSettle   func(*domain.Profile)

	mu      sync.Mutex
	machine *fsm.FSM
	user    *domain.Profile
	settled chan struct{}
	gen     uint64
	cancel  context.CancelFunc
	act     *activation
}

type activation struct {
	base context.Context
	sub  *auth.Subscription
	kick chan struct{}
	stop chan struct{}
	once sync.Once
}

// New creates an inactive resolver in the resolving state.
func New(principals domain.PrincipalSource, profiles domain.RowStore, opts ...Option) *Resolver {
	r := &Resolver{
		principals: principals,
		profiles:   profiles,
		logger:     slog.Default(),
		settled:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "identity")

	// Callbacks run while r.mu is held by the caller of Event.
	r.machine = fsm.NewFSM(
		StateResolving,
		fsm.Events{
			{Name: EventResolve, Src: []string{StateResolved}, Dst: StateResolving},
			{Name: EventSettle, Src: []string{StateResolving}, Dst: StateResolved},
		},
		fsm.Callbacks{
			"enter_" + StateResolving: func(_ context.Context, _ *fsm.Event) {
				r.settled = make(chan struct{})
			},
			"enter_" + StateResolved: func(_ context.Context, _ *fsm.Event) {
				close(r.settled)
			},
		},
	)
	return r
}

// Activate subscribes to auth events and starts the first resolution.
// Lookups run on contexts derived from ctx. Activating an active resolver
// does nothing.
func (r *Resolver) Activate(ctx context.Context) {
	r.mu.Lock()
	if r.act != nil {
		r.mu.Unlock()
		return
	}
	act := &activation{
		base: ctx,
		kick: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	r.act = act
	r.mu.Unlock()

	if r.broker != nil {
		act.sub = r.broker.Subscribe(r.sessionID, func(ev auth.Event) {
			r.logger.Debug("auth state changed", "event", string(ev.Type), "session_id", ev.SessionID)
			r.restart(act)
		})
	}
	go r.work(act)
	r.restart(act)
}

// Deactivate unsubscribes and cancels the lookup in flight. Results arriving
// afterwards are discarded. Only the first call has an effect.
func (r *Resolver) Deactivate() {
	r.mu.Lock()
	act := r.act
	r.act = nil
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	r.mu.Unlock()

	if act == nil {
		return
	}
	act.once.Do(func() {
		if act.sub != nil {
			act.sub.Unsubscribe()
		}
		close(act.stop)
	})
}

// Snapshot returns the current identity and whether a resolution is pending.
func (r *Resolver) Snapshot() (user *domain.Profile, loading bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.user != nil {
		cp := *r.user
		user = &cp
	}
	return user, r.machine.Current() == StateResolving
}

// State returns the current state name.
func (r *Resolver) State() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Current()
}

// Wait blocks until the resolver is resolved or ctx ends, then returns the
// snapshot.
func (r *Resolver) Wait(ctx context.Context) (*domain.Profile, error) {
	r.mu.Lock()
	settled := r.settled
	r.mu.Unlock()

	select {
	case <-settled:
		user, _ := r.Snapshot()
		return user, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// restart cancels the lookup in flight, moves to resolving, and queues a run.
func (r *Resolver) restart(act *activation) {
	r.mu.Lock()
	if r.act != act {
		r.mu.Unlock()
		return
	}
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.machine.Can(EventResolve) {
		if err := r.machine.Event(context.Background(), EventResolve); err != nil {
			r.logger.Error("identity transition failed", "event", EventResolve, "error", err)
		}
	}
	r.mu.Unlock()

	select {
	case act.kick <- struct{}{}:
	default:
	}
}

func (r *Resolver) work(act *activation) {
	for {
		select {
		case <-act.stop:
			return
		case <-act.kick:
			r.resolveOnce(act)
		}
	}
}

func (r *Resolver) resolveOnce(act *activation) {
	r.mu.Lock()
	if r.act != act {
		r.mu.Unlock()
		return
	}
	gen := r.gen
	ctx, cancel := context.WithCancel(act.base)
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	user, outcome, err := r.lookup(ctx)
	if errors.Is(err, context.Canceled) {
		r.logger.Debug("identity lookup cancelled", "generation", gen)
		return
	}

	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.cancel = nil
	r.user = user
	if err := r.machine.Event(context.Background(), EventSettle); err != nil {
		r.logger.Error("identity transition failed", "event", EventSettle, "error", err)
	}
	r.mu.Unlock()

	metrics.RecordIdentity(outcome)
	if r.onSettle != nil {
		r.onSettle(user)
	}
}

// lookup runs principal then profile resolution. Failures other than
// cancellation are logged and resolve to no identity. A returned error is
// always context.Canceled.
func (r *Resolver) lookup(ctx context.Context) (*domain.Profile, string, error) {
	p, err := r.principals.CurrentPrincipal(ctx)
	if err != nil {
		if rowstore.IsAbort(err) || errors.Is(err, context.Canceled) {
			return nil, "", context.Canceled
		}
		r.logger.Warn("resolve principal failed", "error", err)
		return nil, metrics.IdentityFailed, nil
	}
	if p == nil {
		return nil, metrics.IdentityAnonymous, nil
	}

	var row domain.Profile
	found, err := r.profiles.SelectOne(ctx, profileQuery.With(domain.Eq("id", p.ID)), &row)
	if err != nil {
		if rowstore.IsAbort(err) {
			return nil, "", context.Canceled
		}
		r.logger.Warn("load profile failed", "user_id", p.ID, "error", err)
		return nil, metrics.IdentityFailed, nil
	}
	if !found {
		return domain.SynthesizeProfile(*p), metrics.IdentitySynthesized, nil
	}
	return domain.MergePrincipal(row, *p), metrics.IdentityProfile, nil
}
