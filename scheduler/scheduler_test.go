package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"planos_scrooper/config"
)

type countingRunner struct {
	runs atomic.Int32
	done chan struct{}
}

func (r *countingRunner) RunAll(ctx context.Context) error {
	if r.runs.Add(1) == 1 {
		close(r.done)
	}
	return nil
}

func TestStart_InvalidCron(t *testing.T) {
	s := New(config.SchedulerConfig{Cron: "not a cron"}, &countingRunner{done: make(chan struct{})})
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected invalid cron error")
	}
}

func TestStart_NoSchedule(t *testing.T) {
	s := New(config.SchedulerConfig{}, &countingRunner{done: make(chan struct{})})
	if err := s.Start(context.Background()); !errors.Is(err, ErrNoSchedule) {
		t.Fatalf("expected ErrNoSchedule, got %v", err)
	}
}

func TestStart_Interval(t *testing.T) {
	runner := &countingRunner{done: make(chan struct{})}
	s := New(config.SchedulerConfig{Interval: 10 * time.Millisecond}, runner)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("runner was never triggered")
	}
	s.Stop()

	after := runner.runs.Load()
	time.Sleep(50 * time.Millisecond)
	if runner.runs.Load() != after {
		t.Fatalf("runner triggered after Stop")
	}
}

func TestTriggerNow(t *testing.T) {
	runner := &countingRunner{done: make(chan struct{})}
	s := New(config.SchedulerConfig{Cron: "@every 1h"}, runner)
	s.TriggerNow(context.Background())
	if runner.runs.Load() != 1 {
		t.Fatalf("expected one run, got %d", runner.runs.Load())
	}
}
