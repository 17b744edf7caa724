package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// refreshTimeout bounds how long one scheduled refresh waits for results.
const refreshTimeout = time.Minute

// Scheduler refreshes a Board on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	board    *Board
	schedule string
	logger   *slog.Logger
}

// NewScheduler parses schedule (standard cron or a descriptor such as
// "@every 5m") and registers the refresh job. An empty schedule disables
// scheduled refreshes.
func NewScheduler(board *Board, schedule string, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:     cron.New(),
		board:    board,
		schedule: schedule,
		logger:   logger.With("component", "scheduler"),
	}
	if schedule == "" {
		return s, nil
	}
	if _, err := s.cron.AddFunc(schedule, s.refresh); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("board refresh scheduler started", "schedule", s.schedule)
}

// Stop stops the cron loop and waits for a running refresh to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("board refresh scheduler stopped")
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if err := s.board.Refresh(ctx); err != nil {
		s.logger.Warn("scheduled board refresh did not finish", "error", err)
		return
	}
	snap := s.board.Snapshot()
	s.logger.Debug("board refreshed", "cities", len(snap.Cities.Data), "states", len(snap.States.Data))
}
