// Package scheduler runs the discovery sweep on a fixed cadence, replacing
// the need for an external cron trigger.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/scribe/internal/discovery"
)

// Config holds scheduler configuration.
type Config struct {
	Interval time.Duration // sweep cadence (default 15m)
	Limit    int           // per-sweep enqueue cap (0 = unbounded)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 15 * time.Minute,
	}
}

// Scheduler triggers periodic catalog sweeps.
type Scheduler struct {
	enumerator *discovery.Enumerator
	config     Config
}

// New creates a new Scheduler.
func New(e *discovery.Enumerator, config Config) *Scheduler {
	if config.Interval == 0 {
		config.Interval = DefaultConfig().Interval
	}
	return &Scheduler{enumerator: e, config: config}
}

// Run starts the sweep loop. It blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("discovery scheduler started", "interval", s.config.Interval)
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("discovery scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	found, err := s.enumerator.FindNewVideos(ctx, s.config.Limit)
	if err != nil {
		slog.Error("discovery sweep failed", "error", err)
		return
	}
	if len(found) > 0 {
		slog.Info("discovery sweep enqueued", "count", len(found))
	}
}

// RunOnce executes a single sweep. Useful for testing.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.sweep(ctx)
}
