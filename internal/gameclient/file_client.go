package gameclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/containerd/errdefs"

	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/repository"
)

// FileClient is an offline GameClient backed by a LibraryDocument.
// Mutations only touch memory and mark the client dirty; the persistence
// scheduler writes the document back to disk.
type FileClient struct {
	mu         sync.RWMutex
	doc        repository.LibraryDocument
	index      map[repository.AppID]int
	dirty      bool
	revision   uint64
	lastUpdate int64
}

func NewFileClient() *FileClient {
	return NewFileClientFromDocument(repository.LibraryDocument{})
}

// NewFileClientFromDocument indexes doc. Games without an AppID are skipped;
// a repeated AppID keeps the first game.
func NewFileClientFromDocument(doc repository.LibraryDocument) *FileClient {
	doc.ApplyDefaults()
	fc := &FileClient{index: make(map[repository.AppID]int), lastUpdate: doc.Metadata.LastUpdate}
	for _, g := range doc.Games {
		if g.AppID == 0 {
			continue
		}
		if _, dup := fc.index[g.AppID]; dup {
			continue
		}
		fc.index[g.AppID] = len(fc.doc.Games)
		fc.doc.Games = append(fc.doc.Games, cloneGame(g))
	}
	if fc.doc.Games == nil {
		fc.doc.Games = []repository.LibraryGame{}
	}
	return fc
}

func (f *FileClient) OwnedApps(ctx context.Context) ([]repository.AppID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids := make([]repository.AppID, 0, len(f.doc.Games))
	for _, g := range f.doc.Games {
		ids = append(ids, g.AppID)
	}
	logger.WithComponent("file-client").Debugf("listing owned apps: %d", len(ids))
	return repository.SortAppIDs(ids), nil
}

func (f *FileClient) AppSchema(ctx context.Context, app repository.AppID) ([]repository.Achievement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	g, err := f.game(app)
	if err != nil {
		return nil, err
	}
	out := make([]repository.Achievement, len(g.Achievements))
	copy(out, g.Achievements)
	return out, nil
}

func (f *FileClient) AchievementState(ctx context.Context, app repository.AppID, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	a, err := f.achievement(app, key)
	if err != nil {
		return false, err
	}
	return a.Unlocked, nil
}

func (f *FileClient) SetAchievementState(ctx context.Context, app repository.AppID, key string, unlocked bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, err := f.achievement(app, key)
	if err != nil {
		return err
	}
	if a.Unlocked == unlocked {
		return nil
	}
	a.Unlocked = unlocked
	f.dirty = true
	f.revision++
	logger.WithComponent("file-client").Debugf("achievement %s/%s unlocked=%v", app, key, unlocked)
	return nil
}

func (f *FileClient) AppIconURL(ctx context.Context, app repository.AppID) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	g, err := f.game(app)
	if err != nil {
		return "", err
	}
	if g.IconURL == "" {
		return defaultAppIconURL(app), nil
	}
	return g.IconURL, nil
}

func (f *FileClient) AchievementIconURL(ctx context.Context, app repository.AppID, key string, unlocked bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	a, err := f.achievement(app, key)
	if err != nil {
		return "", err
	}
	if !unlocked && a.IconLockedURL != "" {
		return a.IconLockedURL, nil
	}
	if a.IconURL == "" {
		return "", fmt.Errorf("achievement %s/%s has no icon: %w", app, key, errdefs.ErrNotFound)
	}
	return a.IconURL, nil
}

// IsDirty, Snapshot and MarkPersisted implement cache.PersistableStore.

func (f *FileClient) IsDirty() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dirty
}

func (f *FileClient) Snapshot() (repository.LibraryDocument, uint64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := repository.LibraryDocument{
		Metadata: repository.Metadata{LastUpdate: f.lastUpdate},
		Games:    make([]repository.LibraryGame, len(f.doc.Games)),
	}
	for i, g := range f.doc.Games {
		out.Games[i] = cloneGame(g)
	}
	return out, f.revision, nil
}

func (f *FileClient) MarkPersisted(revision uint64, ts int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUpdate = ts
	if f.revision == revision {
		f.dirty = false
	}
}

// caller holds f.mu
func (f *FileClient) game(app repository.AppID) (*repository.LibraryGame, error) {
	i, ok := f.index[app]
	if !ok {
		return nil, fmt.Errorf("app %s is not owned: %w", app, errdefs.ErrNotFound)
	}
	return &f.doc.Games[i], nil
}

// caller holds f.mu
func (f *FileClient) achievement(app repository.AppID, key string) (*repository.Achievement, error) {
	g, err := f.game(app)
	if err != nil {
		return nil, err
	}
	for i := range g.Achievements {
		if g.Achievements[i].Key == key {
			return &g.Achievements[i], nil
		}
	}
	return nil, fmt.Errorf("achievement %s/%s: %w", app, key, errdefs.ErrNotFound)
}

func cloneGame(g repository.LibraryGame) repository.LibraryGame {
	achs := make([]repository.Achievement, len(g.Achievements))
	copy(achs, g.Achievements)
	g.Achievements = achs
	return g
}
