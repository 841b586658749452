package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"userSessionService/pkg/errutil"
	"userSessionService/repository"
)

// DefaultSweepInterval is used when NewSweeper is given a non-positive interval.
const DefaultSweepInterval = 10 * time.Minute

// Sweeper periodically removes expired session entries.
type Sweeper struct {
	store    repository.SessionStore
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(store repository.SessionStore, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, interval: interval, logger: logger}
}

// Start launches the sweep loop. It is a no-op if the sweeper is already running.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

// Stop ends the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SweepOnce deletes expired entries and returns how many were removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		sessionsSwept.Add(float64(n))
		s.logger.DebugContext(ctx, "expired sessions removed", "count", n)
	}
	return n, nil
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				errutil.LogError(ctx, s.logger, "session sweep failed", err)
			}
		}
	}
}
