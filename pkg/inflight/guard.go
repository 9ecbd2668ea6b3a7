// Package inflight marks operations as in progress so duplicate submissions can be refused.
package inflight

import "sync"

// Guard tracks in-progress keys. The zero value is ready to use.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// Acquire marks key as in flight. It returns ok=false when key is already held.
// The returned release must be called exactly once, typically with defer; extra calls are no-ops.
func (g *Guard) Acquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active == nil {
		g.active = make(map[string]struct{})
	}
	if _, busy := g.active[key]; busy {
		return func() {}, false
	}
	g.active[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, key)
			g.mu.Unlock()
		})
	}, true
}

// Busy reports whether key is currently held.
func (g *Guard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[key]
	return busy
}

// Len returns the number of keys in flight.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}
