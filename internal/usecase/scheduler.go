package usecase

import (
	"context"
	"log/slog"
	"time"

	"LeadScout/internal/logging"
	"LeadScout/internal/ports"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context, trigger time.Time) error

// Scheduler wires the cron driver with a job.
type Scheduler struct {
	driver ports.Scheduler
	job    Job
	log    *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, job Job, log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, job: job, log: logging.OrDiscard(log)}
}

// Start registers the job with the provided scheduler. Job errors are logged.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.job == nil {
		return nil
	}

	run := func(trigger time.Time) {
		s.log.Info("scheduled run started", "trigger", trigger)
		if err := s.job(ctx, trigger); err != nil {
			s.log.Error("scheduled run failed", "trigger", trigger, "error", err)
			return
		}
		s.log.Info("scheduled run finished", "trigger", trigger, "took", time.Since(trigger).Round(time.Millisecond))
	}

	return s.driver.Start(ctx, run)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
