package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAggregator/internal/logging"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsIngestionOnTrigger(t *testing.T) {
	t.Parallel()

	driver := &manualDriver{}
	queue := &fakeQueue{}
	ing := NewIngestor(fakeSource{}, queue, DefaultJobOptions, logging.Discard())
	s := NewScheduler(driver, ing, logging.Discard())

	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(time.Now())
	driver.job(time.Now())
	assert.Len(t, queue.jobs, 2)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerToleratesMissingDriver(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, logging.Discard())
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
