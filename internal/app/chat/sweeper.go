package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"parlor/internal/pkg/logx"
)

const (
	// DefaultSweepInterval is how often the sweeper inspects DM rooms.
	DefaultSweepInterval = 15 * time.Minute

	// DefaultDMIdleTimeout is how long a DM room may sit without a new
	// message before it becomes eligible for eviction.
	DefaultDMIdleTimeout = 15 * time.Minute
)

// Sweeper periodically evicts DM rooms that are both idle past the timeout
// and have no attached connections. It shares the Service lock with the
// interactive handlers, so a sweep never races a concurrent join.
type Sweeper struct {
	svc       *Service
	interval  time.Duration
	idleAfter time.Duration
	logger    zerolog.Logger
}

// NewSweeper builds a sweeper for the service. Non-positive durations fall
// back to the defaults.
func NewSweeper(svc *Service, interval, idleAfter time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if idleAfter <= 0 {
		idleAfter = DefaultDMIdleTimeout
	}

	return &Sweeper{
		svc:       svc,
		interval:  interval,
		idleAfter: idleAfter,
		logger:    logx.Logger().With().Str("component", "sweeper").Logger(),
	}
}

// Run blocks, sweeping on every tick until the context is canceled.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().
		Dur("interval", w.interval).
		Dur("idle_after", w.idleAfter).
		Msg("DM room sweeper started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("DM room sweeper stopped")
			return

		case now := <-ticker.C:
			if deleted := w.svc.SweepIdleDMRooms(now, w.idleAfter); deleted > 0 {
				w.logger.Info().Int("deleted", deleted).Msg("Idle DM rooms evicted")
			}
		}
	}
}
