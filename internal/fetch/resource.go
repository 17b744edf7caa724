// Package fetch implements the resource fetch hook: a reusable loader that
// runs one row-store query per activation and tracks its data, loading, and
// error state with cancellation.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/metrics"
	"admin-dashboard/internal/rowstore"
)

// DefaultErrorMessage is shown when a failure carries no message of its own.
const DefaultErrorMessage = "An error occurred"

// State is the consumer-facing snapshot of a resource.
//
// Loading=true means Error was cleared for the current attempt. A non-nil
// Error implies Loading=false. Data is never nil.
type State[R any] struct {
	Data    []R     `json:"data"`
	Loading bool    `json:"loading"`
	Error   *string `json:"error"`
}

// Option configures a Resource.
type Option func(*resourceOptions)

type resourceOptions struct {
	logger *slog.Logger
	now    func() time.Time
}

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *resourceOptions) { o.logger = l }
}

// WithClock overrides the clock used for duration metrics.
func WithClock(now func() time.Time) Option {
	return func(o *resourceOptions) { o.now = now }
}

// Resource loads the rows of one fixed query into State. Each activation gets
// its own cancellation token and generation number; only the current
// generation may write state.
type Resource[R any] struct {
	name   string
	store  domain.RowStore
	query  domain.Query
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	state   State[R]
	gen     uint64
	cancel  context.CancelFunc
	filters []domain.Filter
}

// New creates a resource for query q. name labels logs and metrics.
func New[R any](name string, store domain.RowStore, q domain.Query, opts ...Option) *Resource[R] {
	o := resourceOptions{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Resource[R]{
		name:   name,
		store:  store,
		query:  q,
		logger: o.logger.With("component", "fetch", "resource", name),
		now:    o.now,
		state:  State[R]{Data: []R{}, Loading: true},
	}
}

// Name returns the resource label.
func (r *Resource[R]) Name() string { return r.name }

// Activation tracks one fetch attempt.
type Activation struct {
	done chan struct{}
}

// Done is closed once the attempt finished, whether its result was applied,
// discarded, or swallowed.
func (a *Activation) Done() <-chan struct{} { return a.done }

// Wait blocks until the attempt finished or ctx ends.
func (a *Activation) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Activate cancels any in-flight attempt and starts a new one using the
// filters of the last Refetch, if any. The query runs on a context derived
// from ctx, so cancelling ctx aborts it as well.
func (r *Resource[R]) Activate(ctx context.Context) *Activation {
	return r.activate(ctx, nil, false)
}

// Refetch supersedes the current attempt with one restricted by filters.
// Later activations keep using these filters.
func (r *Resource[R]) Refetch(ctx context.Context, filters ...domain.Filter) *Activation {
	return r.activate(ctx, filters, true)
}

// Deactivate signals the current token. Whatever the in-flight attempt
// returns afterwards is discarded. Calling it more than once is harmless.
func (r *Resource[R]) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
}

// State returns a copy of the current state.
func (r *Resource[R]) State() State[R] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := State[R]{
		Data:    append(make([]R, 0, len(r.state.Data)), r.state.Data...),
		Loading: r.state.Loading,
	}
	if r.state.Error != nil {
		msg := *r.state.Error
		out.Error = &msg
	}
	return out
}

// Load activates the resource, waits for the attempt, and returns the
// resulting state. A non-nil error means ctx ended first.
func (r *Resource[R]) Load(ctx context.Context) (State[R], error) {
	if err := r.Activate(ctx).Wait(ctx); err != nil {
		return r.State(), err
	}
	return r.State(), nil
}

func (r *Resource[R]) activate(ctx context.Context, filters []domain.Filter, setFilters bool) *Activation {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	if setFilters {
		r.filters = append([]domain.Filter(nil), filters...)
	}
	r.gen++
	gen := r.gen
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.state.Loading = true
	r.state.Error = nil
	q := r.query.With(r.filters...)
	r.mu.Unlock()

	act := &Activation{done: make(chan struct{})}
	go r.run(runCtx, cancel, gen, q, act)
	return act
}

func (r *Resource[R]) run(ctx context.Context, cancel context.CancelFunc, gen uint64, q domain.Query, act *Activation) {
	defer close(act.done)
	defer cancel()

	start := r.now()
	var rows []R
	err := r.store.Select(ctx, q, &rows)
	elapsed := r.now().Sub(start)

	r.mu.Lock()
	defer r.mu.Unlock()

	if rowstore.IsAbort(err) {
		r.logger.Debug("fetch aborted", "generation", gen)
		metrics.RecordFetch(r.name, metrics.OutcomeAborted, elapsed)
		return
	}
	if gen != r.gen {
		r.logger.Debug("fetch superseded", "generation", gen, "current", r.gen)
		metrics.RecordFetch(r.name, metrics.OutcomeSuperseded, elapsed)
		return
	}

	r.state.Loading = false
	if err != nil {
		msg := errorMessage(err)
		r.state.Error = &msg
		r.state.Data = []R{}
		r.logger.Warn("fetch failed", "error", err, "kind", rowstore.KindOf(err).String())
		metrics.RecordFetch(r.name, metrics.OutcomeError, elapsed)
		return
	}
	if rows == nil {
		rows = []R{}
	}
	r.state.Data = rows
	r.state.Error = nil
	metrics.RecordFetch(r.name, metrics.OutcomeSuccess, elapsed)
}

func errorMessage(err error) string {
	var qe *rowstore.QueryError
	if errors.As(err, &qe) {
		if qe.Message != "" {
			return qe.Message
		}
		return DefaultErrorMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultErrorMessage
}
