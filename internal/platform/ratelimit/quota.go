package ratelimit

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

var ErrQuotaExhausted = crerr.New("daily request quota exhausted")

// DailyQuota counts provider calls within a rolling window that starts at the
// first call after the previous window expired.
type DailyQuota struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	used        int
	windowStart time.Time
	now         func() time.Time
}

func NewDailyQuota(limit int) *DailyQuota {
	if limit < 1 {
		limit = 100
	}
	return &DailyQuota{limit: limit, window: 24 * time.Hour, now: time.Now}
}

// Take consumes one call or returns ErrQuotaExhausted together with the
// instant the window resets.
func (q *DailyQuota) Take() (time.Time, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	q.rollLocked(now)
	if q.windowStart.IsZero() {
		q.windowStart = now
	}
	resetAt := q.windowStart.Add(q.window)
	if q.used >= q.limit {
		return resetAt, crerr.WithDetailf(ErrQuotaExhausted, "resets at %s", resetAt.UTC().Format(time.RFC3339))
	}
	q.used++
	return resetAt, nil
}

// Sync aligns the local counter with the remaining count reported by the
// provider, which also covers calls made by other processes.
func (q *DailyQuota) Sync(remaining int) {
	if remaining < 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	q.rollLocked(now)
	if q.windowStart.IsZero() {
		q.windowStart = now
	}
	if used := q.limit - remaining; used > q.used {
		q.used = used
	}
}

// Exhaust marks the quota as spent until the current window resets.
func (q *DailyQuota) Exhaust() {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	q.rollLocked(now)
	if q.windowStart.IsZero() {
		q.windowStart = now
	}
	q.used = q.limit
}

func (q *DailyQuota) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollLocked(q.now())
	return q.limit - q.used
}

func (q *DailyQuota) rollLocked(now time.Time) {
	if !q.windowStart.IsZero() && now.Sub(q.windowStart) >= q.window {
		q.windowStart = time.Time{}
		q.used = 0
	}
}

// MinuteLimiter spaces calls evenly so that at most perMinute happen in any
// minute.
type MinuteLimiter struct {
	inner *rate.Limiter
}

func NewMinuteLimiter(perMinute int) *MinuteLimiter {
	if perMinute < 1 {
		perMinute = 10
	}
	return &MinuteLimiter{inner: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)}
}

func (l *MinuteLimiter) Allow() bool {
	return l.inner.Allow()
}

func (l *MinuteLimiter) Wait(ctx context.Context) error {
	return l.inner.Wait(ctx)
}
