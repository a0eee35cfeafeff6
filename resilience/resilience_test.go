package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	if cb.CurrentState() != Closed {
		t.Fatalf("expected initial state closed")
	}
	cb.RecordResult(errors.New("fail"))
	if cb.CurrentState() != Closed {
		t.Fatalf("expected still closed after 1 failure")
	}
	cb.RecordResult(errors.New("fail"))
	if cb.CurrentState() != Open {
		t.Fatalf("expected open after reaching threshold")
	}
	if err := cb.Allow(); err == nil {
		t.Fatalf("expected fail-fast while open")
	}
}

func TestCircuitBreakerHalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	cb.RecordResult(errors.New("fail"))
	if cb.CurrentState() != Open {
		t.Fatalf("expected open")
	}
	time.Sleep(20 * time.Millisecond)
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected half-open trial to be allowed: %v", err)
	}
	cb.RecordResult(nil)
	if cb.CurrentState() != Closed {
		t.Fatalf("expected closed after successful trial")
	}
}

func TestRetrySucceedsEventually(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), nil, RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetrySkippedWhenCircuitOpen(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Hour)
	cb.RecordResult(errors.New("fail"))

	calls := 0
	err := Retry(context.Background(), cb, RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatalf("expected circuit-open error")
	}
	if calls != 0 {
		t.Fatalf("expected fn never called while circuit open, got %d calls", calls)
	}
}

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	if !rl.Allow() {
		t.Fatalf("expected first token available")
	}
	if !rl.Allow() {
		t.Fatalf("expected second token available (burst=2)")
	}
	if rl.Allow() {
		t.Fatalf("expected third immediate call to be denied")
	}
}
