package ratelimit

import (
	"container/heap"
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/football-sync/internal/platform/resilience"
)

var ErrNoKeys = crerr.New("at least one api key is required")

type RotatorConfig struct {
	// Limit requests per Window are allowed for a single key.
	Limit  int
	Window time.Duration
	// Cooldown is the minimum spacing between two requests on one key.
	Cooldown time.Duration
	// Penalty parks a key after a 429 or transport error.
	Penalty time.Duration
}

func DefaultRotatorConfig() RotatorConfig {
	return RotatorConfig{
		Limit:    10,
		Window:   time.Minute,
		Cooldown: 6500 * time.Millisecond,
		Penalty:  70 * time.Second,
	}
}

func (c RotatorConfig) normalized() RotatorConfig {
	defaults := DefaultRotatorConfig()
	if c.Limit < 1 {
		c.Limit = defaults.Limit
	}
	if c.Window <= 0 {
		c.Window = defaults.Window
	}
	if c.Cooldown < 0 {
		c.Cooldown = 0
	}
	if c.Penalty <= 0 {
		c.Penalty = defaults.Penalty
	}
	return c
}

type keySlot struct {
	key   string
	ready time.Time
	// sent holds the last Limit reserved send times, oldest first.
	sent  []time.Time
	index int
}

type keyQueue []*keySlot

func (q keyQueue) Len() int { return len(q) }

func (q keyQueue) Less(i, j int) bool {
	if q[i].ready.Equal(q[j].ready) {
		return q[i].key < q[j].key
	}
	return q[i].ready.Before(q[j].ready)
}

func (q keyQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *keyQueue) Push(x any) {
	slot := x.(*keySlot)
	slot.index = len(*q)
	*q = append(*q, slot)
}

func (q *keyQueue) Pop() any {
	old := *q
	n := len(old)
	slot := old[n-1]
	*q = old[:n-1]
	slot.index = -1
	return slot
}

// KeyRotator hands out API keys so that no key ever exceeds Limit requests in
// any Window. Keys sit in a min-heap ordered by the earliest instant they may
// be used again.
type KeyRotator struct {
	mu     sync.Mutex
	cfg    RotatorConfig
	queue  keyQueue
	byKey  map[string]*keySlot
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	onWait func(key string, d time.Duration)
}

func NewKeyRotator(keys []string, cfg RotatorConfig) (*KeyRotator, error) {
	r := &KeyRotator{
		cfg:   cfg.normalized(),
		byKey: make(map[string]*keySlot, len(keys)),
		now:   time.Now,
		sleep: resilience.SleepContext,
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, dup := r.byKey[key]; dup {
			continue
		}
		slot := &keySlot{key: key}
		r.byKey[key] = slot
		heap.Push(&r.queue, slot)
	}
	if len(r.byKey) == 0 {
		return nil, ErrNoKeys
	}
	return r, nil
}

// OnWait registers a hook called whenever a caller has to wait for a key.
func (r *KeyRotator) OnWait(fn func(key string, d time.Duration)) {
	r.mu.Lock()
	r.onWait = fn
	r.mu.Unlock()
}

// Reserve books the earliest legal slot across all keys and returns the key
// together with the instant the request may be sent. The slot is accounted
// for immediately so concurrent callers never share it.
func (r *KeyRotator) Reserve() (string, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	slot := r.queue[0]
	at := slot.ready
	if at.Before(now) {
		at = now
	}

	slot.sent = append(slot.sent, at)
	if len(slot.sent) > r.cfg.Limit {
		slot.sent = slot.sent[len(slot.sent)-r.cfg.Limit:]
	}
	slot.ready = r.nextReady(slot, at)
	heap.Fix(&r.queue, slot.index)

	return slot.key, at
}

// Acquire reserves a key and blocks until its slot arrives.
func (r *KeyRotator) Acquire(ctx context.Context) (string, error) {
	key, at := r.Reserve()
	wait := at.Sub(r.now())
	if wait <= 0 {
		return key, nil
	}

	r.mu.Lock()
	onWait := r.onWait
	r.mu.Unlock()
	if onWait != nil {
		onWait(key, wait)
	}
	if err := r.sleep(ctx, wait); err != nil {
		return "", crerr.Wrap(err, "wait for api key")
	}
	return key, nil
}

// Penalize pushes a key's next use out by the penalty cooldown.
func (r *KeyRotator) Penalize(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.byKey[key]
	if !ok {
		return
	}
	until := r.now().Add(r.cfg.Penalty)
	if until.After(slot.ready) {
		slot.ready = until
		heap.Fix(&r.queue, slot.index)
	}
}

func (r *KeyRotator) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}

func (r *KeyRotator) nextReady(slot *keySlot, last time.Time) time.Time {
	ready := last.Add(r.cfg.Cooldown)
	if len(slot.sent) >= r.cfg.Limit {
		windowFree := slot.sent[len(slot.sent)-r.cfg.Limit].Add(r.cfg.Window)
		if windowFree.After(ready) {
			ready = windowFree
		}
	}
	return ready
}
