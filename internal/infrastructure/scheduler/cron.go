package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsAggregator/internal/ports"
)

// ErrAlreadyStarted is returned when Start is called twice without Stop.
var ErrAlreadyStarted = errors.New("scheduler already started")

// CronScheduler runs a job on a cron expression ("@every 12h" style
// descriptors included).
type CronScheduler struct {
	spec   string
	logger *log.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
// logger may be nil.
func NewCronScheduler(spec string, logger *log.Logger) *CronScheduler {
	return &CronScheduler{spec: spec, logger: logger}
}

// Start registers job and begins ticking. Runs never overlap; a trigger that
// fires while the previous run is active is skipped.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return ErrAlreadyStarted
	}

	var cronLogger cron.Logger = cron.DiscardLogger
	if c.logger != nil {
		cronLogger = cron.PrintfLogger(c.logger)
	}

	scheduler := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := scheduler.AddFunc(c.spec, func() { job(time.Now()) }); err != nil {
		return fmt.Errorf("parse schedule %q: %w", c.spec, err)
	}

	scheduler.Start()
	c.cron = scheduler

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop halts scheduling and waits for a running job until ctx expires.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	scheduler := c.cron
	c.cron = nil
	c.mu.Unlock()

	if scheduler == nil {
		return nil
	}

	done := scheduler.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
