package tasks

import (
	"context"
)

type handle struct {
	key    string
	ctx    context.Context
	cancel context.CancelFunc
	stale  bool // guarded by Coordinator.mu
}

// Registry tracks in-flight tasks of one key space (app icons, achievement icons).
// At most one task per key is in flight.
type Registry struct {
	name    string
	coord   *Coordinator
	handles map[string]*handle // guarded by coord.mu
}

// Issue schedules task under key. It returns false, without scheduling anything,
// when key already has an in-flight task. Tasks beyond the coordinator cap wait
// for a free slot in FIFO order.
//
// onDone runs exactly once per accepted task unless the registry was invalidated
// in between. It runs under the coordinator lock, so it must be quick and must
// not call back into the registry.
func (r *Registry) Issue(key string, task Task, onDone func(err error)) bool {
	c := r.coord
	c.mu.Lock()
	if _, busy := r.handles[key]; busy {
		c.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	h := &handle{key: key, ctx: ctx, cancel: cancel}
	r.handles[key] = h
	c.wg.Go(func() { r.run(h, task, onDone) })
	c.mu.Unlock()
	return true
}

func (r *Registry) run(h *handle, task Task, onDone func(err error)) {
	c := r.coord
	err := c.sem.Acquire(h.ctx, 1)
	acquired := err == nil
	if acquired && h.ctx.Err() != nil {
		// invalidated right after the slot was granted
		c.sem.Release(1)
		acquired, err = false, h.ctx.Err()
	}
	if acquired {
		c.enter()
		err = c.safeRun(h.ctx, r.name, task)
	}
	r.complete(h, acquired, err, onDone)
	if acquired {
		c.sem.Release(1)
	}
}

// complete decrements the counter, notifies and drops the handle as one step.
func (r *Registry) complete(h *handle, acquired bool, err error, onDone func(err error)) {
	c := r.coord
	c.mu.Lock()
	defer c.mu.Unlock()

	if acquired {
		c.outstanding.Add(-1)
	}
	if !h.stale && onDone != nil {
		onDone(err)
	}
	if cur, ok := r.handles[h.key]; ok && cur == h {
		delete(r.handles, h.key)
	}
	h.cancel()
}

// InFlight reports whether key has a task that has not completed yet.
func (r *Registry) InFlight(key string) bool {
	r.coord.mu.Lock()
	defer r.coord.mu.Unlock()
	_, ok := r.handles[key]
	return ok
}

// Len returns the number of in-flight handles (running or queued).
func (r *Registry) Len() int {
	r.coord.mu.Lock()
	defer r.coord.mu.Unlock()
	return len(r.handles)
}

// Invalidate drops every handle. Their contexts are cancelled and their
// completions no longer call onDone. It returns how many handles were dropped.
func (r *Registry) Invalidate() int {
	r.coord.mu.Lock()
	defer r.coord.mu.Unlock()
	n := len(r.handles)
	for key, h := range r.handles {
		h.stale = true
		h.cancel()
		delete(r.handles, key)
	}
	return n
}
