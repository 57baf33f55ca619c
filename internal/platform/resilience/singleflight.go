package resilience

import "sync"

// Group collapses concurrent calls sharing a key into one execution. Provider
// clients use it so parallel workers asking for the same competition season
// issue a single upstream request.
type Group[T any] struct {
	mu    sync.Mutex
	calls map[string]*flight[T]
}

type flight[T any] struct {
	wg  sync.WaitGroup
	val T
	err error
}

// Do returns the result of fn and whether it was shared with another caller.
func (g *Group[T]) Do(key string, fn func() (T, error)) (T, bool, error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*flight[T])
	}
	if f, ok := g.calls[key]; ok {
		g.mu.Unlock()
		f.wg.Wait()
		return f.val, true, f.err
	}

	f := &flight[T]{}
	f.wg.Add(1)
	g.calls[key] = f
	g.mu.Unlock()

	defer func() {
		f.wg.Done()
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
	}()

	f.val, f.err = fn()
	return f.val, false, f.err
}
