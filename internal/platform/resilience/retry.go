package resilience

import (
	"context"
	"net/http"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// Outcome classifies a single provider attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryable
	OutcomeRateLimited
	OutcomeTerminal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// ClassifyHTTPStatus maps a provider HTTP status to a retry outcome.
// 403 is terminal: the plan does not cover the resource and retrying only
// burns quota.
func ClassifyHTTPStatus(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return OutcomeSuccess
	case status == http.StatusTooManyRequests:
		return OutcomeRateLimited
	case status == http.StatusForbidden:
		return OutcomeTerminal
	case status == http.StatusRequestTimeout, status >= 500:
		return OutcomeRetryable
	default:
		return OutcomeTerminal
	}
}

type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	RateLimitDelay time.Duration
	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    4,
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		RateLimitDelay: 65 * time.Second,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	defaults := DefaultRetryPolicy()
	if p.MaxAttempts < 1 {
		p.MaxAttempts = defaults.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaults.BaseDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = max(defaults.MaxDelay, p.BaseDelay)
	}
	if p.RateLimitDelay <= 0 {
		p.RateLimitDelay = defaults.RateLimitDelay
	}
	if p.Sleep == nil {
		p.Sleep = SleepContext
	}
	return p
}

// Backoff returns the delay before the given retry (1-based), doubling from
// BaseDelay and capped at MaxDelay.
func (p RetryPolicy) Backoff(retry int) time.Duration {
	p = p.normalized()
	if retry < 1 {
		retry = 1
	}
	delay := p.BaseDelay
	for i := 1; i < retry; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return delay
}

// Do calls fn until it succeeds, returns a terminal outcome, or attempts run
// out. The last error is returned unchanged so callers can inspect it.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) (Outcome, error)) error {
	p = p.normalized()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		outcome, err := fn(ctx, attempt)
		switch outcome {
		case OutcomeSuccess:
			return nil
		case OutcomeTerminal:
			if err == nil {
				err = crerr.New("terminal provider response")
			}
			return err
		}

		lastErr = err
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Backoff(attempt)
		if outcome == OutcomeRateLimited {
			delay = p.RateLimitDelay
		}
		if sleepErr := p.Sleep(ctx, delay); sleepErr != nil {
			return crerr.Wrapf(sleepErr, "retry aborted after: %v", lastErr)
		}
	}

	if lastErr == nil {
		lastErr = crerr.New("retry attempts exhausted")
	}
	return lastErr
}

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
