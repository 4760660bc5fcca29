package provider

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Throttle spaces out calls to one backend: a randomized courtesy delay
// followed by a token bucket.
type Throttle struct {
	limiter  *rate.Limiter
	minDelay time.Duration
	maxDelay time.Duration
}

// NewThrottle creates a throttle. A non-positive rate disables the token
// bucket; a zero delay range disables the courtesy sleep.
func NewThrottle(ratePerSecond float64, minDelay, maxDelay time.Duration) *Throttle {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &Throttle{
		limiter:  rate.NewLimiter(limit, 1),
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Wait blocks until the next call may proceed or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if d := t.delay(); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return t.limiter.Wait(ctx)
}

func (t *Throttle) delay() time.Duration {
	if t.maxDelay <= 0 {
		return 0
	}
	if t.maxDelay <= t.minDelay {
		return t.minDelay
	}
	return t.minDelay + rand.N(t.maxDelay-t.minDelay)
}
