package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"planos_scrooper/config"
)

var ErrNoSchedule = errors.New("no schedule configured")

// Runner is the work triggered on every tick.
type Runner interface {
	RunAll(ctx context.Context) error
}

// Scheduler re-runs every site on a cron expression or a fixed interval.
// Runs never overlap; a tick that fires while a run is active is dropped.
type Scheduler struct {
	cfg    config.SchedulerConfig
	runner Runner
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func New(cfg config.SchedulerConfig, runner Runner) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Cron)
		_, err := s.cron.AddFunc(s.cfg.Cron, func() { s.run(ctx) })
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
		return nil
	}

	if s.cfg.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Interval)
		s.ticker = time.NewTicker(s.cfg.Interval)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.run(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
		return nil
	}

	return ErrNoSchedule
}

// TriggerNow runs immediately, outside the schedule.
func (s *Scheduler) TriggerNow(ctx context.Context) {
	s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	if !s.mu.TryLock() {
		log.Println("Previous run still active, skipping tick")
		return
	}
	defer s.mu.Unlock()

	if err := s.runner.RunAll(ctx); err != nil {
		log.Printf("Scheduled run error: %v", err)
	}
}

// Stop halts the schedule and waits for an active run to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
	s.wg.Wait()
}
