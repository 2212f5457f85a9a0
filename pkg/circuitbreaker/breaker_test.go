package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{FailureThreshold: 2, Timeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("Execute() error = %v, want errBoom", err)
		}
	}

	if cb.State() != StateOpen {
		t.Fatalf("State() = %s, want open", cb.State())
	}

	called := false
	err := cb.Execute(ctx, func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() on open breaker error = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("function should not run while the breaker is open")
	}
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	cb := NewCircuitBreaker("test", Config{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Second})
	cb.now = func() time.Time { return clock }
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errBoom })
	if cb.State() != StateOpen {
		t.Fatalf("State() = %s, want open", cb.State())
	}

	clock = clock.Add(2 * time.Second)
	if cb.State() != StateHalfOpen {
		t.Fatalf("State() = %s, want half-open", cb.State())
	}

	if err := cb.Execute(ctx, func() error { return nil }); err != nil {
		t.Fatalf("Execute() in half-open error = %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("State() = %s, want closed", cb.State())
	}
}

func TestBreakerIsSuccessfulPredicate(t *testing.T) {
	errExpected := errors.New("no route")
	cb := NewCircuitBreaker("test", Config{
		FailureThreshold: 1,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errExpected)
		},
	})

	_ = cb.Execute(context.Background(), func() error { return errExpected })
	if cb.State() != StateClosed {
		t.Errorf("State() = %s, want closed for an expected error", cb.State())
	}
	if got := cb.Counts().TotalSuccesses; got != 1 {
		t.Errorf("TotalSuccesses = %d, want 1", got)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateClosed:   "closed",
		StateHalfOpen: "half-open",
		StateOpen:     "open",
		State(9):      "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
