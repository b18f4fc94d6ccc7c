// Package resilience wraps outbound calls with retry, circuit breaking
// and concurrency limiting.
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// backoffCeiling bounds a single retry wait regardless of attempt count.
const backoffCeiling = 10 * time.Second

// Config tunes retry and bulkhead behavior.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// RetryWithBackoff runs fn up to MaxRetries+1 times. Waits double per
// attempt with up to 50% jitter and stop as soon as the context is
// cancelled. The last error is returned when every attempt fails.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries {
			return lastErr
		}

		if err := sleepBackoff(ctx, cfg.InitialBackoff, attempt); err != nil {
			return err
		}
	}
}

func sleepBackoff(ctx context.Context, initial time.Duration, attempt int) error {
	wait := initial << uint(attempt)
	if wait > backoffCeiling || wait <= 0 {
		wait = backoffCeiling
		if initial <= 0 {
			wait = 0
		}
	}
	if half := int64(wait / 2); half > 0 {
		wait += time.Duration(rand.Int63n(half))
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewCircuitBreaker builds a breaker that trips once at least five
// recent calls have a failure ratio of 60% or more, allows three probe
// requests when half-open, and re-closes counters every 30 seconds.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
}

// Bulkhead caps how many callers may hold a slot at once.
type Bulkhead struct {
	slots chan struct{}
}

// NewBulkhead creates a bulkhead admitting maxConcurrency holders.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	return &Bulkhead{slots: make(chan struct{}, maxConcurrency)}
}

// Acquire takes a slot, blocking until one frees up or ctx is done.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a previously acquired slot.
func (b *Bulkhead) Release() {
	<-b.slots
}
