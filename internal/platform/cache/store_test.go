package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_GetOrLoad_CollapsesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore[map[string]int](time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (map[string]int, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return map[string]int{"PENDING": 3}, nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "progress:summary", loader)
			if err != nil {
				errCh <- err
				return
			}
			if v["PENDING"] != 3 {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Second)
	now := time.Date(2026, 8, 16, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "k", 7)
	if v, ok := store.Get(context.Background(), "k"); !ok || v != 7 {
		t.Fatalf("expected cached value, got %d %v", v, ok)
	}

	now = now.Add(2 * time.Second)
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_LoaderErrorIsNotCached(t *testing.T) {
	t.Parallel()

	store := NewStore[int](time.Minute)
	calls := 0
	_, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
		calls++
		return 0, errUnexpectedValue
	})
	if !errors.Is(err, errUnexpectedValue) {
		t.Fatalf("expected loader error, got %v", err)
	}
	v, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
		calls++
		return 5, nil
	})
	if err != nil || v != 5 || calls != 2 {
		t.Fatalf("expected reload, got v=%d err=%v calls=%d", v, err, calls)
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
