package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 2, 100*time.Millisecond)

	if cb.GetState() != CircuitClosed {
		t.Fatal("new breaker should start closed")
	}

	for i := 0; i < 3; i++ {
		if err := cb.Allow(); err != nil {
			t.Fatalf("request %d should be allowed: %v", i, err)
		}
		cb.RecordFailure()
	}

	if cb.GetState() != CircuitOpen {
		t.Errorf("state = %s, want OPEN after 3 failures", cb.GetState())
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open circuit should reject requests, got %v", err)
	}
}

func TestCircuitBreakerRecovery(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	if cb.GetState() != CircuitOpen {
		t.Fatal("breaker should be open")
	}

	time.Sleep(20 * time.Millisecond)

	// After the open timeout the next Allow transitions to half-open.
	if err := cb.Allow(); err != nil {
		t.Fatalf("probe request should be allowed: %v", err)
	}
	if cb.GetState() != CircuitHalfOpen {
		t.Fatalf("state = %s, want HALF_OPEN", cb.GetState())
	}

	cb.RecordSuccess()
	if cb.GetState() != CircuitHalfOpen {
		t.Error("one success should not close the breaker yet")
	}
	cb.RecordSuccess()
	if cb.GetState() != CircuitClosed {
		t.Errorf("state = %s, want CLOSED after success threshold", cb.GetState())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	_ = cb.Allow()
	if cb.GetState() != CircuitHalfOpen {
		t.Fatal("expected half-open")
	}

	cb.RecordFailure()
	if cb.GetState() != CircuitOpen {
		t.Errorf("state = %s, want OPEN after half-open failure", cb.GetState())
	}
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(3, 2, time.Second)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	if cb.GetState() != CircuitClosed {
		t.Error("interleaved success should reset the failure streak")
	}
}

func TestIsRetriableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "rate limit status", err: fmt.Errorf("got 429 Too Many Requests"), want: true},
		{name: "rate limit text", err: fmt.Errorf("rate limit exceeded"), want: true},
		{name: "server error", err: fmt.Errorf("503 service unavailable"), want: true},
		{name: "gateway timeout", err: fmt.Errorf("gateway timeout"), want: true},
		{name: "connection refused", err: fmt.Errorf("dial tcp: connection refused"), want: true},
		{name: "auth failure", err: fmt.Errorf("401 unauthorized"), want: false},
		{name: "bad request", err: fmt.Errorf("400 invalid request body"), want: false},
		{name: "unknown error", err: fmt.Errorf("something odd"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetriableError(tt.err); got != tt.want {
				t.Errorf("isRetriableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCircuitStateString(t *testing.T) {
	if CircuitClosed.String() != "CLOSED" || CircuitOpen.String() != "OPEN" || CircuitHalfOpen.String() != "HALF_OPEN" {
		t.Error("unexpected state strings")
	}
	if CircuitState(99).String() != "UNKNOWN" {
		t.Error("out-of-range state should print UNKNOWN")
	}
}
