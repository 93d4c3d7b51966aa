// Package fetchguard deduplicates keyed fetches. Concurrent callers for the
// same key share one in-flight call; a successful result is kept until the key
// is forgotten, a failed one is discarded so the next caller retries.
package fetchguard

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State is the lifecycle of a single key.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

type entry[V any] struct {
	state State
	value V
	gen   uint64
}

// Guard is safe for concurrent use. The zero value is ready to use.
type Guard[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	group   singleflight.Group
}

// Do returns the loaded value for key, or runs fn once for all concurrent
// callers. fn receives a context detached from the caller's cancellation so
// that one caller leaving does not fail the others; it must bound its own
// duration. A caller whose ctx ends stops waiting and gets ctx.Err().
func (g *Guard[V]) Do(ctx context.Context, key string, fn func(context.Context) (V, error)) (V, error) {
	var zero V

	g.mu.Lock()
	e := g.entryLocked(key)
	if e.state == Loaded {
		v := e.value
		g.mu.Unlock()
		return v, nil
	}
	e.state = Loading
	gen := e.gen
	g.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		v, err := fn(detached)

		g.mu.Lock()
		defer g.mu.Unlock()
		cur := g.entryLocked(key)
		if cur.gen != gen {
			// forgotten while in flight; hand the result to waiters only
			return v, err
		}
		if err != nil {
			cur.state = Failed
			cur.value = zero
			return v, err
		}
		cur.state = Loaded
		cur.value = v
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		v, _ := res.Val.(V)
		return v, res.Err
	}
}

// Peek returns the loaded value for key without fetching.
func (g *Guard[V]) Peek(key string) (V, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[key]; ok && e.state == Loaded {
		return e.value, true
	}
	var zero V
	return zero, false
}

// State reports the current state of key.
func (g *Guard[V]) State(key string) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[key]; ok {
		return e.state
	}
	return Idle
}

// Forget drops the value for key. A fetch in flight for key still completes
// for its waiters but its result is not stored.
func (g *Guard[V]) Forget(key string) {
	g.mu.Lock()
	if e, ok := g.entries[key]; ok {
		var zero V
		e.state = Idle
		e.value = zero
		e.gen++
	}
	g.mu.Unlock()
	g.group.Forget(key)
}

func (g *Guard[V]) entryLocked(key string) *entry[V] {
	if g.entries == nil {
		g.entries = make(map[string]*entry[V])
	}
	e, ok := g.entries[key]
	if !ok {
		e = &entry[V]{}
		g.entries[key] = e
	}
	return e
}
