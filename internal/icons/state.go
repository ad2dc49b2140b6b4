package icons

import (
	"sync"

	"github.com/bassista/go_sam/internal/repository"
)

// State is the per-key download state. A failed key stays failed until an
// explicit new request moves it back to Pending.
type State int

const (
	NotRequested State = iota
	Pending
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "not_requested"
	}
}

// Tracker records the State of every requested key.
type Tracker struct {
	mu     sync.RWMutex
	states map[repository.IconKey]State
}

func NewTracker() *Tracker {
	return &Tracker{states: make(map[repository.IconKey]State)}
}

func (t *Tracker) Get(key repository.IconKey) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.states[key]
}

func (t *Tracker) Set(key repository.IconKey, s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s == NotRequested {
		delete(t.states, key)
		return
	}
	t.states[key] = s
}

// Forget drops every key of app, or every key when all is true.
func (t *Tracker) Forget(app repository.AppID, all bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.states {
		if all || k.App == app {
			delete(t.states, k)
		}
	}
}

// Count returns how many keys are in state s.
func (t *Tracker) Count(s State) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, st := range t.states {
		if st == s {
			n++
		}
	}
	return n
}
