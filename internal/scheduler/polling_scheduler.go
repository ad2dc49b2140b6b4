package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/bassista/go_sam/internal/logger"
)

// NameUpdater is the catalog operation the poller drives.
type NameUpdater interface {
	UpdateNameDatabase(ctx context.Context) error
}

// PollingScheduler keeps the app catalog fresh while the process runs.
// Every tick asks the catalog to update; the catalog's staleness window
// decides whether that means a download.
//
// Semantics:
// - Ticks never overlap: a tick that is still running when the next one is due makes it skip.
// - Failures are counted and logged; the next tick simply tries again.
type PollingScheduler struct {
	updater NameUpdater
	poll    time.Duration

	mu       sync.Mutex
	running  bool
	ticks    int
	failures int
}

func NewPollingScheduler(updater NameUpdater, poll time.Duration) *PollingScheduler {
	return &PollingScheduler{updater: updater, poll: poll}
}

// Start runs the poller until ctx is cancelled. The returned channel is closed
// once the goroutine has exited.
func (s *PollingScheduler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	logger.WithComponent("sched").Debugf("starting catalog poller with interval: %v", s.poll)
	ticker := time.NewTicker(s.poll)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("sched").Info("catalog poller stopped")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
	return done
}

func (s *PollingScheduler) tick(ctx context.Context) {
	log := logger.WithComponent("sched")
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Debug("previous catalog tick still running, skipping")
		return
	}
	s.running = true
	s.ticks++
	s.mu.Unlock()

	err := s.updater.UpdateNameDatabase(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if err != nil {
		s.failures++
		log.Warnf("catalog update failed (%d failures so far): %v", s.failures, err)
		return
	}
	log.Tracef("catalog tick completed")
}

// Stats returns how many ticks ran and how many of them failed.
func (s *PollingScheduler) Stats() (ticks, failures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks, s.failures
}
