package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tally/internal/core"
)

// DueProcessor executes the recurring templates due on a day.
type DueProcessor interface {
	ProcessDue(ctx context.Context, today core.Date) (int, error)
}

// SchedulerConfig holds configuration for the recurring scheduler
type SchedulerConfig struct {
	// PollInterval is how often due templates are checked (default: 1h)
	PollInterval time.Duration
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{PollInterval: time.Hour}
}

// Scheduler runs a DueProcessor on startup and then every PollInterval.
type Scheduler struct {
	processor DueProcessor
	config    SchedulerConfig
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(processor DueProcessor, config SchedulerConfig) *Scheduler {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSchedulerConfig().PollInterval
	}
	return &Scheduler{
		processor: processor,
		config:    config,
		now:       time.Now,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Recurring scheduler started", "poll_interval", s.config.PollInterval)
	return nil
}

// Stop gracefully stops the scheduler and waits for the current run.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)

	select {
	case <-s.doneCh:
		slog.InfoContext(ctx, "Recurring scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recurring scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on startup
	s.runOnce(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	n, err := s.processor.ProcessDue(ctx, core.DateOf(s.now()))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to process recurring transactions", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Recurring transactions created", "count", n)
	}
}
