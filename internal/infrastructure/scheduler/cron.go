package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"LeadScout/internal/ports"
	"LeadScout/pkg/logger"
)

// CronScheduler runs the scan job on a standard five-field cron expression.
type CronScheduler struct {
	spec string
	loc  *time.Location
	log  *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for spec evaluated in loc.
func NewCronScheduler(spec string, loc *time.Location, log *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{spec: spec, loc: loc, log: log}
}

// Start registers job and starts the cron loop. Overlapping runs are skipped.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	cl := logger.Cron(c.log)
	cr := cron.New(
		cron.WithLocation(c.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := cr.AddFunc(c.spec, func() { job(time.Now().In(c.loc)) }); err != nil {
		return fmt.Errorf("schedule %q: %w", c.spec, err)
	}

	cr.Start()
	c.cron = cr

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop halts the cron loop and waits for a running job or ctx, whichever ends first.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()

	if cr == nil {
		return nil
	}

	select {
	case <-cr.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
