package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"NewsAggregator/internal/ports"
)

// Limiter paces outbound LLM calls with a token bucket of burst 1.
type Limiter struct {
	limiter *rate.Limiter
}

var _ ports.RateLimiter = (*Limiter)(nil)

// New allows one call per interval. A non-positive interval disables pacing.
func New(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Noop never blocks.
type Noop struct{}

var _ ports.RateLimiter = Noop{}

// Wait only reports context cancellation.
func (Noop) Wait(ctx context.Context) error {
	return ctx.Err()
}
