// Package dashboard holds the long-lived reference data shared by every
// dashboard page and the helpers that load per-request page data.
package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"admin-dashboard/internal/domain"
	"admin-dashboard/internal/fetch"
	"admin-dashboard/internal/metrics"
)

// Snapshot is a point-in-time copy of the board's resources.
type Snapshot struct {
	Cities fetch.State[domain.City]  `json:"cities"`
	States fetch.State[domain.State] `json:"states"`
}

// Board owns the cities and states resources, read through the privileged
// store. They stay active between Start and Stop.
type Board struct {
	cities *fetch.Resource[domain.City]
	states *fetch.Resource[domain.State]
	logger *slog.Logger

	mu      sync.Mutex
	base    context.Context
	running bool
}

// NewBoard creates a board reading from store.
func NewBoard(store domain.RowStore, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "board")
	return &Board{
		cities: fetch.NewCities(store, logger),
		states: fetch.NewStates(store, logger),
		logger: logger,
	}
}

// Start activates both resources on ctx. Starting a running board is a no-op.
func (b *Board) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	b.base = ctx
	b.running = true
	b.cities.Activate(ctx)
	b.states.Activate(ctx)
	b.logger.Info("board started")
}

// Refresh re-activates both resources and waits until both attempts have
// finished or ctx ends. It does nothing unless the board is running.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	base := b.base
	cities := b.cities.Activate(base)
	states := b.states.Activate(base)
	b.mu.Unlock()

	metrics.IncBoardRefresh()
	if err := cities.Wait(ctx); err != nil {
		return err
	}
	return states.Wait(ctx)
}

// Stop deactivates both resources. Results arriving later are discarded.
func (b *Board) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return
	}
	b.running = false
	b.cities.Deactivate()
	b.states.Deactivate()
	b.logger.Info("board stopped")
}

// Snapshot returns copies of both resource states.
func (b *Board) Snapshot() Snapshot {
	return Snapshot{Cities: b.cities.State(), States: b.states.State()}
}

// Cities returns the current cities state.
func (b *Board) Cities() fetch.State[domain.City] { return b.cities.State() }

// States returns the current states state.
func (b *Board) States() fetch.State[domain.State] { return b.states.State() }
