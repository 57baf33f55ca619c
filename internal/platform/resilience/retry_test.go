package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClassifyHTTPStatus(t *testing.T) {
	t.Parallel()

	cases := map[int]Outcome{
		200: OutcomeSuccess,
		204: OutcomeSuccess,
		400: OutcomeTerminal,
		403: OutcomeTerminal,
		404: OutcomeTerminal,
		408: OutcomeRetryable,
		429: OutcomeRateLimited,
		500: OutcomeRetryable,
		503: OutcomeRetryable,
	}
	for status, want := range cases {
		if got := ClassifyHTTPStatus(status); got != want {
			t.Fatalf("status %d: expected %s, got %s", status, want, got)
		}
	}
}

func TestRetryPolicy_BackoffCapped(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := p.Backoff(i + 1); got != w {
			t.Fatalf("retry %d: expected %s, got %s", i+1, w, got)
		}
	}
}

func TestRetryPolicy_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	p := RetryPolicy{
		MaxAttempts:    4,
		BaseDelay:      time.Second,
		MaxDelay:       time.Minute,
		RateLimitDelay: 65 * time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	calls := 0
	err := p.Do(context.Background(), func(_ context.Context, attempt int) (Outcome, error) {
		calls++
		switch attempt {
		case 1:
			return OutcomeRetryable, errors.New("502")
		case 2:
			return OutcomeRateLimited, errors.New("429")
		default:
			return OutcomeSuccess, nil
		}
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 65*time.Second {
		t.Fatalf("unexpected sleeps: %v", slept)
	}
}

func TestRetryPolicy_TerminalStopsImmediately(t *testing.T) {
	t.Parallel()

	forbidden := errors.New("forbidden")
	calls := 0
	p := RetryPolicy{Sleep: func(context.Context, time.Duration) error {
		t.Fatalf("terminal outcome must not sleep")
		return nil
	}}
	err := p.Do(context.Background(), func(context.Context, int) (Outcome, error) {
		calls++
		return OutcomeTerminal, forbidden
	})
	if !errors.Is(err, forbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls)
	}
}

func TestRetryPolicy_ExhaustedReturnsLastError(t *testing.T) {
	t.Parallel()

	last := errors.New("still failing")
	p := RetryPolicy{MaxAttempts: 3, Sleep: func(context.Context, time.Duration) error { return nil }}
	calls := 0
	err := p.Do(context.Background(), func(context.Context, int) (Outcome, error) {
		calls++
		return OutcomeRetryable, last
	})
	if !errors.Is(err, last) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryPolicy_ContextCancelledDuringSleep(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	err := p.Do(ctx, func(context.Context, int) (Outcome, error) {
		return OutcomeRetryable, errors.New("down")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
