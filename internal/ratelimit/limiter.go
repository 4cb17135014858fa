// Package ratelimit throttles repeated work, such as re-running an analysis
// each time a results file changes.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle admits at most one event per interval. A zero interval admits
// everything.
type Throttle struct {
	limiter *rate.Limiter
}

func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		limiter: rate.NewLimiter(limitFor(interval), 1),
	}
}

func limitFor(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}

// Wait blocks until the next event is admitted or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now without waiting. An
// admitted event uses up the interval.
func (t *Throttle) Allow() bool {
	return t.limiter.Allow()
}
