package resilience

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate into the provider-keyed token
// bucket named in the spec's resilience section: tokens refill at
// ratePerSecond, bucket capacity is burstSize.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter constructs a token-bucket limiter.
func NewRateLimiter(ratePerSecond float64, burstSize int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burstSize)}
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a token is immediately available, consuming it if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}
