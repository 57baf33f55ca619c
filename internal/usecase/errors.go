package usecase

import (
	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")

	// ErrProviderForbidden means the resource is outside the provider plan.
	// It is terminal for that resource only.
	ErrProviderForbidden = crerr.New("provider forbidden")
	// ErrQuotaExhausted halts a provider until its quota window resets.
	ErrQuotaExhausted    = crerr.New("provider quota exhausted")
	ErrRateLimited       = crerr.New("provider rate limited")
	ErrProviderTransient = crerr.New("provider transient failure")
)

// IsTerminal reports errors that must never be retried for the same unit of
// work.
func IsTerminal(err error) bool {
	return crerr.Is(err, ErrProviderForbidden)
}

// IsRetryable reports errors that a later sweep or cycle may resolve. Quota
// exhaustion is not retryable within the current window.
func IsRetryable(err error) bool {
	if err == nil || IsTerminal(err) {
		return false
	}
	return !crerr.IsAny(err, ErrQuotaExhausted, ErrInvalidInput)
}
