package cache

import (
	"context"
	"time"

	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/repository"
)

// StartPersistenceScheduler runs a goroutine that periodically flushes dirty state to disk.
// On ctx.Done, it performs a final flush before returning.
// Returns a channel that is closed when the scheduler has completed shutdown.
func StartPersistenceScheduler(
	ctx context.Context,
	store PersistableStore,
	repo repository.Saver[repository.LibraryDocument],
	interval time.Duration,
) <-chan struct{} {
	done := make(chan struct{})
	log := logger.WithComponent("persist")
	log.Debugf("starting persistence scheduler with interval: %v", interval)
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				// ctx is already cancelled; the final flush must still complete
				Flush(context.Background(), store, repo)
				log.Info("persistence scheduler stopped after final flush")
				return
			case <-ticker.C:
				Flush(ctx, store, repo)
			}
		}
	}()
	return done
}

// Flush persists the store if dirty. It reports whether a write happened.
func Flush(ctx context.Context, store PersistableStore, repo repository.Saver[repository.LibraryDocument]) bool {
	log := logger.WithComponent("persist")
	if !store.IsDirty() {
		log.Tracef("state is clean, skipping flush")
		return false
	}
	if err := ctx.Err(); err != nil {
		log.Debugf("flush cancelled: %v", err)
		return false
	}

	snapshot, rev, err := store.Snapshot()
	if err != nil {
		log.Errorf("persist error: failed to get snapshot: %v", err)
		return false
	}
	snapshot.Metadata.LastUpdate = time.Now().UnixMilli()

	if err := repo.Save(ctx, &snapshot); err != nil {
		log.Errorf("persist error: failed to save: %v", err)
		return false
	}

	store.MarkPersisted(rev, snapshot.Metadata.LastUpdate)
	log.Info("library state persisted to disk")
	return true
}
