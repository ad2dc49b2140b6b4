package view

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bassista/go_sam/internal/logger"
)

// Message is a unit of UI work. It receives the View it must paint on.
type Message func(v View)

// Dispatcher is an unbounded FIFO of UI messages. Post is safe from any
// goroutine, never blocks and never drops; messages run only inside Tick.
type Dispatcher struct {
	view View

	mu      sync.Mutex
	queue   []Message
	pending chan struct{}
	posted  uint64
	handled uint64
}

func NewDispatcher(v View) *Dispatcher {
	return &Dispatcher{view: v, pending: make(chan struct{}, 1)}
}

// Post enqueues m.
func (d *Dispatcher) Post(m Message) {
	if m == nil {
		return
	}
	d.mu.Lock()
	d.queue = append(d.queue, m)
	d.posted++
	d.mu.Unlock()

	select {
	case d.pending <- struct{}{}:
	default:
	}
}

// Tick runs every message queued so far, in order, on the calling goroutine.
// Messages posted while Tick runs wait for the next Tick. It returns how many ran.
func (d *Dispatcher) Tick() int {
	d.mu.Lock()
	batch := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, m := range batch {
		m(d.view)
	}

	d.mu.Lock()
	d.handled += uint64(len(batch))
	d.mu.Unlock()
	return len(batch)
}

// Drain ticks until the queue is empty.
func (d *Dispatcher) Drain() int {
	total := 0
	for {
		n := d.Tick()
		if n == 0 {
			return total
		}
		total += n
	}
}

// Len returns the number of queued messages.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Stats returns how many messages were posted and handled so far.
func (d *Dispatcher) Stats() (posted, handled uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.posted, d.handled
}

const (
	doQueued int32 = iota
	doRunning
	doAbandoned
)

// Do posts m and waits until it ran or ctx is done. When Do returns an error
// m has not run and never will: the queued message is skipped.
func (d *Dispatcher) Do(ctx context.Context, m func(v View)) error {
	var state atomic.Int32
	done := make(chan struct{})
	d.Post(func(v View) {
		if !state.CompareAndSwap(doQueued, doRunning) {
			return
		}
		defer close(done)
		m(v)
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if state.CompareAndSwap(doQueued, doAbandoned) {
			return ctx.Err()
		}
		// already started, report it as run
		<-done
		return nil
	}
}

// Run is the UI loop: it ticks whenever messages are pending until ctx is
// cancelled, then drains what is left.
func (d *Dispatcher) Run(ctx context.Context) {
	log := logger.WithComponent("ui")
	log.Debug("ui loop started")
	for {
		select {
		case <-ctx.Done():
			n := d.Drain()
			log.Debugf("ui loop stopped, drained %d messages", n)
			return
		case <-d.pending:
			d.Tick()
		}
	}
}
