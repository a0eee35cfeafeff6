package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy governs exponential backoff with optional jitter, mirroring
// the teacher's llmclient.Client.backoffSleep formula generalized into a
// standalone, reusable helper.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool
}

// delay returns the backoff delay before attempt i (0-indexed).
func (p RetryPolicy) delay(i int) time.Duration {
	d := p.BaseDelay * time.Duration(uint64(1)<<uint(i))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		jitter := time.Duration(rand.Int63n(int64(d)))
		d = d/2 + jitter/2
	}
	return d
}

// Retry runs fn up to MaxRetries+1 times, applying exponential backoff
// between attempts, and skipping entirely (returning immediately) if
// breaker is non-nil and its circuit is open. fn's returned error is
// recorded against breaker after each attempt.
func Retry(ctx context.Context, breaker *CircuitBreaker, policy RetryPolicy, fn func(ctx context.Context) error) error {
	var lastErr error
	attempts := policy.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if breaker != nil {
			if err := breaker.Allow(); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if breaker != nil {
			breaker.RecordResult(err)
		}
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.delay(i)):
		}
	}
	return lastErr
}
