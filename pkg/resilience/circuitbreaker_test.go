package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func failingN(n int, cb *CircuitBreaker) {
	for i := 0; i < n; i++ {
		cb.Execute(func() error { return errBoom })
	}
}

func TestOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Hour})

	failingN(2, cb)
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %s after 2 failures, want closed", cb.GetState())
	}

	failingN(1, cb)
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %s after 3 failures, want open", cb.GetState())
	}

	err := cb.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open circuit returned %v, want ErrCircuitOpen", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Hour})

	failingN(2, cb)
	cb.Execute(func() error { return nil })
	failingN(2, cb)

	if cb.GetState() != StateClosed {
		t.Errorf("state = %s, want closed (a success resets the streak)", cb.GetState())
	}
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})

	failingN(1, cb)
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %s, want open", cb.GetState())
	}

	time.Sleep(20 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe after cool-down returned %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state = %s after successful probe, want closed", cb.GetState())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})

	failingN(1, cb)
	time.Sleep(20 * time.Millisecond)
	failingN(1, cb)

	if cb.GetState() != StateOpen {
		t.Errorf("state = %s after failed probe, want open", cb.GetState())
	}
}

func TestManualReset(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})

	failingN(1, cb)
	cb.Reset()
	if cb.GetState() != StateClosed {
		t.Errorf("state = %s after Reset, want closed", cb.GetState())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Errorf("Execute after Reset returned %v", err)
	}
}
