package resilience

import (
	"sync"
	"time"
)

// Registry holds process-wide circuit breakers and rate limiters keyed by
// provider name, initialized lazily on first use, per the spec's "process-
// wide, keyed by provider name, protected by a short critical section"
// requirement.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	limiters map[string]*RateLimiter

	failThreshold int
	resetTimeout  time.Duration
	ratePerSecond float64
	burstSize     int
}

// NewRegistry constructs a registry with the given default policy for
// lazily-created breakers/limiters.
func NewRegistry(failThreshold int, resetTimeout time.Duration, ratePerSecond float64, burstSize int) *Registry {
	return &Registry{
		breakers:      make(map[string]*CircuitBreaker),
		limiters:      make(map[string]*RateLimiter),
		failThreshold: failThreshold,
		resetTimeout:  resetTimeout,
		ratePerSecond: ratePerSecond,
		burstSize:     burstSize,
	}
}

// Breaker returns (creating if necessary) the circuit breaker for provider.
func (r *Registry) Breaker(provider string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[provider]; ok {
		return b
	}
	b := NewCircuitBreaker(r.failThreshold, r.resetTimeout)
	r.breakers[provider] = b
	return b
}

// Limiter returns (creating if necessary) the rate limiter for provider.
func (r *Registry) Limiter(provider string) *RateLimiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[provider]; ok {
		return l
	}
	l := NewRateLimiter(r.ratePerSecond, r.burstSize)
	r.limiters[provider] = l
	return l
}
