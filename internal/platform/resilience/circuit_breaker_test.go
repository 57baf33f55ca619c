package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	b := NewCircuitBreaker(2, 5*time.Second, 1)

	now := time.Date(2026, 8, 16, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second probe to be rejected, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %s", state)
	}
}

func TestCircuitBreaker_GuardIgnoresTerminalErrors(t *testing.T) {
	b := NewProviderBreaker("football-data", CircuitBreakerConfig{Enabled: true, FailureThreshold: 1})
	forbidden := errors.New("forbidden")
	transient := errors.New("bad gateway")
	countable := func(err error) bool { return errors.Is(err, transient) }

	if err := b.Guard(func() error { return forbidden }, countable); !errors.Is(err, forbidden) {
		t.Fatalf("expected forbidden passthrough, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("terminal error must not trip breaker, got %s", state)
	}

	_ = b.Guard(func() error { return transient }, countable)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after transient failure, got %s", state)
	}

	called := false
	err := b.Guard(func() error { called = true; return nil }, countable)
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("expected rejection without call, got err=%v called=%v", err, called)
	}
}

func TestCircuitBreaker_DisabledIsNil(t *testing.T) {
	b := NewProviderBreaker("api-football", CircuitBreakerConfig{})
	if b != nil {
		t.Fatalf("expected nil breaker when disabled")
	}
	if err := b.Guard(func() error { return nil }, nil); err != nil {
		t.Fatalf("nil breaker should run fn: %v", err)
	}
}

func TestCircuitBreakerConfig_NormalizedFillsProviderDefaults(t *testing.T) {
	got := CircuitBreakerConfig{Enabled: true, OpenTimeout: -time.Second}.normalized()
	want := CircuitBreakerConfig{Enabled: true, FailureThreshold: 5, OpenTimeout: 30 * time.Second, HalfOpenProbes: 1}
	if got != want {
		t.Fatalf("normalized()=%+v want=%+v", got, want)
	}

	kept := CircuitBreakerConfig{FailureThreshold: 3, OpenTimeout: time.Minute, HalfOpenProbes: 2}
	if got := kept.normalized(); got != kept {
		t.Fatalf("normalized() changed explicit values: %+v", got)
	}
}
