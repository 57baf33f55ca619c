package usecase

import (
	"errors"
	"testing"

	crerr "github.com/cockroachdb/errors"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	forbidden := crerr.Mark(crerr.New("GET /competitions/2021/matches: 403"), ErrProviderForbidden)
	quota := crerr.Wrap(ErrQuotaExhausted, "api-football")
	transient := crerr.Mark(errors.New("502 bad gateway"), ErrProviderTransient)

	cases := []struct {
		name      string
		err       error
		terminal  bool
		retryable bool
	}{
		{name: "forbidden", err: forbidden, terminal: true},
		{name: "quota", err: quota},
		{name: "transient", err: transient, retryable: true},
		{name: "rate limited", err: crerr.Wrap(ErrRateLimited, "429"), retryable: true},
		{name: "plain failure", err: errors.New("connection reset"), retryable: true},
		{name: "invalid input", err: crerr.Wrap(ErrInvalidInput, "bad"), retryable: false},
		{name: "nil", err: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTerminal(tc.err); got != tc.terminal {
				t.Fatalf("IsTerminal = %v, want %v", got, tc.terminal)
			}
			if got := IsRetryable(tc.err); got != tc.retryable {
				t.Fatalf("IsRetryable = %v, want %v", got, tc.retryable)
			}
		})
	}
}
