package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LeadScout/internal/logging"
)

type fakeDriver struct {
	job      func(time.Time)
	stopped  bool
	startErr error
}

func (f *fakeDriver) Start(_ context.Context, job func(time.Time)) error {
	f.job = job
	return f.startErr
}

func (f *fakeDriver) Stop(context.Context) error {
	f.stopped = true
	return nil
}

func TestSchedulerRunsJob(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	var triggers []time.Time
	s := NewScheduler(driver, func(_ context.Context, trigger time.Time) error {
		triggers = append(triggers, trigger)
		return errors.New("source down")
	}, logging.Discard())

	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, driver.job)

	at := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	driver.job(at)
	driver.job(at.Add(24 * time.Hour))
	assert.Len(t, triggers, 2)
	assert.Equal(t, at, triggers[0])

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerWithoutDriver(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, nil)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestSchedulerStartError(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&fakeDriver{startErr: errors.New("bad spec")}, func(context.Context, time.Time) error { return nil }, nil)
	require.Error(t, s.Start(context.Background()))
}
