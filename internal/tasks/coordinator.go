// Package tasks bounds and tracks background work: a shared download cap,
// per-key handle registries with de-duplication, and re-entrancy guards.
package tasks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/semaphore"

	"github.com/bassista/go_sam/internal/logger"
)

// DefaultMaxOutstanding is the download cap used when none is configured.
const DefaultMaxOutstanding = 10

// Task is one unit of background I/O. It should honor ctx.Done().
type Task func(ctx context.Context) error

// PanicReporter receives values recovered from panicking tasks.
type PanicReporter func(component string, recovered any)

// Coordinator owns the download cap shared by all registries, the guards and
// every goroutine it spawns.
type Coordinator struct {
	baseCtx  context.Context
	capacity int64
	sem      *semaphore.Weighted

	outstanding atomic.Int64
	peak        atomic.Int64

	// mu serializes handle bookkeeping and completions across all registries.
	mu     sync.Mutex
	guards map[string]*Guard

	wg       conc.WaitGroup
	reporter PanicReporter
}

// NewCoordinator creates a coordinator whose tasks derive from ctx.
// A capacity below 1 falls back to DefaultMaxOutstanding.
func NewCoordinator(ctx context.Context, capacity int) *Coordinator {
	if capacity < 1 {
		capacity = DefaultMaxOutstanding
	}
	return &Coordinator{
		baseCtx:  ctx,
		capacity: int64(capacity),
		sem:      semaphore.NewWeighted(int64(capacity)),
		guards:   map[string]*Guard{},
	}
}

// SetPanicReporter installs r; it must be called before any task is issued.
func (c *Coordinator) SetPanicReporter(r PanicReporter) {
	c.reporter = r
}

// Cap returns the configured maximum of concurrently running downloads.
func (c *Coordinator) Cap() int64 { return c.capacity }

// Outstanding returns how many downloads are running right now.
func (c *Coordinator) Outstanding() int64 { return c.outstanding.Load() }

// Peak returns the highest Outstanding value observed so far.
func (c *Coordinator) Peak() int64 { return c.peak.Load() }

// Guard returns the re-entrancy guard called name, creating it on first use.
func (c *Coordinator) Guard(name string) *Guard {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.guards[name]
	if !ok {
		g = &Guard{name: name}
		c.guards[name] = g
	}
	return g
}

// NewRegistry creates a handle registry for one key space.
func (c *Coordinator) NewRegistry(name string) *Registry {
	return &Registry{name: name, coord: c, handles: map[string]*handle{}}
}

// Go runs fn in the background outside the download cap. It is meant for
// the single refresh/parse task that owns a guard.
func (c *Coordinator) Go(component string, fn func(ctx context.Context)) {
	c.wg.Go(func() {
		_ = c.safeRun(c.baseCtx, component, func(ctx context.Context) error {
			fn(ctx)
			return nil
		})
	})
}

// Wait blocks until every goroutine started by the coordinator returned.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) enter() {
	n := c.outstanding.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (c *Coordinator) safeRun(ctx context.Context, component string, task Task) error {
	var (
		err     error
		catcher panics.Catcher
	)
	catcher.Try(func() { err = task(ctx) })
	if rec := catcher.Recovered(); rec != nil {
		logger.WithComponent(component).Errorf("background task panicked: %v\n%s", rec.Value, rec.Stack)
		if c.reporter != nil {
			c.reporter(component, rec.Value)
		}
		return rec.AsError()
	}
	return err
}
