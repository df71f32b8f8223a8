package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces out calls to an upstream API
type Limiter interface {
	// Wait blocks until the next call is allowed or ctx is done
	Wait(ctx context.Context) error
}

// Interval is a token bucket with burst 1, allowing one call per interval
type Interval struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// New creates a limiter that allows one call every interval.
// A non-positive interval disables limiting.
func New(interval time.Duration) *Interval {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Interval{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Wait blocks until the next call is allowed
func (l *Interval) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Interval returns the configured spacing
func (l *Interval) Interval() time.Duration {
	return l.interval
}

// Factory builds a fresh limiter. Each analysis run takes its own so that
// concurrent runs for different tokens never queue behind each other.
type Factory func() Limiter

// Every returns a factory of limiters allowing one call every interval
func Every(interval time.Duration) Factory {
	return func() Limiter {
		return New(interval)
	}
}

// Ensure Interval implements Limiter interface
var _ Limiter = (*Interval)(nil)
