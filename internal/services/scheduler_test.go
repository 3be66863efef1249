package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"tally/internal/core"
)

type countingProcessor struct {
	calls atomic.Int32
	err   error
}

func (p *countingProcessor) ProcessDue(context.Context, core.Date) (int, error) {
	p.calls.Add(1)
	return 1, p.err
}

func TestDefaultSchedulerConfig(t *testing.T) {
	if got := DefaultSchedulerConfig().PollInterval; got != time.Hour {
		t.Errorf("expected PollInterval 1h, got %v", got)
	}
	s := NewScheduler(&countingProcessor{}, SchedulerConfig{})
	if s.config.PollInterval != time.Hour {
		t.Errorf("zero interval should fall back to default, got %v", s.config.PollInterval)
	}
}

func TestScheduler_RunsOnStartAndStops(t *testing.T) {
	proc := &countingProcessor{}
	s := NewScheduler(proc, SchedulerConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Error("scheduler should be running after Start")
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting already running scheduler")
	}

	deadline := time.Now().Add(2 * time.Second)
	for proc.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if proc.calls.Load() < 2 {
		t.Errorf("expected at least 2 runs, got %d", proc.calls.Load())
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}
}

func TestScheduler_ErrorsDoNotStopLoop(t *testing.T) {
	proc := &countingProcessor{err: errors.New("database is locked")}
	s := NewScheduler(proc, SchedulerConfig{PollInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for proc.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if proc.calls.Load() < 3 {
		t.Errorf("expected loop to keep running after errors, got %d calls", proc.calls.Load())
	}
	_ = s.Stop(context.Background())
}

func TestScheduler_StopNotRunning(t *testing.T) {
	s := NewScheduler(&countingProcessor{}, DefaultSchedulerConfig())
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}
