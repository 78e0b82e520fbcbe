// Package scheduler runs the periodic reconciliation of assessed attempts
// whose progression or mastery update did not land.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/abhisek/wordsmith/internal/writing"
)

// Reconciler retries pending updates. *writing.Service implements it.
type Reconciler interface {
	ReconcilePending(ctx context.Context) (writing.ReconcileReport, error)
}

// Scheduler wraps a gocron scheduler with one reconcile job.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	reconciler Reconciler
	interval   time.Duration
	logger     *zap.Logger
}

// New creates a scheduler. Runs never overlap; a run still in progress
// when the next tick fires makes that tick a no-op.
func New(r Reconciler, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:  s,
		reconciler: r,
		interval:   interval,
		logger:     logger,
	}
}

// Start registers the job and runs it in the background. The first run
// happens immediately; ctx bounds every run.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("reconcile interval must be positive, got %s", s.interval)
	}
	if _, err := s.scheduler.Every(s.interval).Do(s.run, ctx); err != nil {
		return fmt.Errorf("schedule reconcile: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("reconciler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop stops the scheduler, waiting for a running job to return.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	if _, err := s.reconciler.ReconcilePending(ctx); err != nil {
		s.logger.Error("reconcile failed", zap.Error(err))
	}
}
