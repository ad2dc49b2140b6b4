package tasks

import (
	"sync"
	"sync/atomic"
)

// Guard is a re-entrancy flag for one list refresh. A second acquisition while
// held fails immediately instead of waiting.
type Guard struct {
	name string
	held atomic.Bool
}

// TryAcquire takes the guard. The returned release func is safe to call more
// than once and from any goroutine.
func (g *Guard) TryAcquire() (release func(), ok bool) {
	if !g.held.CompareAndSwap(false, true) {
		return nil, false
	}
	var once sync.Once
	return func() {
		once.Do(func() { g.held.Store(false) })
	}, true
}

// Held reports whether a refresh currently owns the guard.
func (g *Guard) Held() bool {
	return g.held.Load()
}

func (g *Guard) Name() string {
	return g.name
}
