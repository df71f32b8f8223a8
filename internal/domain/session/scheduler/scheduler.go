package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ExpiredSessionDeleter removes sessions past their expiry
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler periodically deletes expired sessions
type Scheduler struct {
	store    ExpiredSessionDeleter
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	stopCh   chan struct{}
	cancel   context.CancelFunc // cancels an in-flight sweep
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// Config holds configuration for the session sweeper
type Config struct {
	Interval time.Duration
}

// New creates a new session sweeper
func New(store ExpiredSessionDeleter, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Minute
	}

	return &Scheduler{
		store:    store,
		interval: cfg.Interval,
		now:      time.Now,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("session sweeper started", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the scheduler and waits for the current sweep to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("session sweeper stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to delete expired sessions", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("deleted expired sessions", "count", n)
	}
}
