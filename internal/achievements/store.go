// Package achievements holds the achievement list of the selected game and
// the edits made to it before they are committed to the game client.
package achievements

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"

	"github.com/bassista/go_sam/internal/gameclient"
	"github.com/bassista/go_sam/internal/icons"
	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/repository"
	"github.com/bassista/go_sam/internal/tasks"
	"github.com/bassista/go_sam/internal/view"
)

const (
	AchievementsGuard        = "achievements"
	AchievementIconsRegistry = "achievement-icons"
)

// Deps are the collaborators of a Store. Tracker is optional and must not be
// shared with the catalog: switching games forgets every tracked key.
type Deps struct {
	Client      gameclient.GameClient
	Coordinator *tasks.Coordinator
	Dispatcher  *view.Dispatcher
	IconStore   *icons.Store
	Fetcher     *icons.Fetcher
	Tracker     *icons.Tracker
}

// Store is the achievement list of one game at a time. Every game selection
// gets a fresh context token; background results carrying an older token are
// discarded.
type Store struct {
	client  gameclient.GameClient
	coord   *tasks.Coordinator
	guard   *tasks.Guard
	iconReg *tasks.Registry
	ui      *view.Dispatcher
	store   *icons.Store
	fetcher *icons.Fetcher
	states  *icons.Tracker

	mu       sync.RWMutex
	app      repository.AppID
	token    uuid.UUID
	rows     []repository.Achievement
	original map[string]bool // unlock state as loaded or last committed

	// live mirrors token for icon completions, which run under the
	// coordinator lock and must not take mu.
	live atomic.Value // uuid.UUID
}

func New(d Deps) (*Store, error) {
	if d.Client == nil || d.Coordinator == nil || d.Dispatcher == nil {
		return nil, errors.New("client, coordinator and dispatcher are required")
	}
	if d.IconStore == nil || d.Fetcher == nil {
		return nil, errors.New("icon store and fetcher are required")
	}
	if d.Tracker == nil {
		d.Tracker = icons.NewTracker()
	}
	return &Store{
		client:  d.Client,
		coord:   d.Coordinator,
		guard:   d.Coordinator.Guard(AchievementsGuard),
		iconReg: d.Coordinator.NewRegistry(AchievementIconsRegistry),
		ui:      d.Dispatcher,
		store:   d.IconStore,
		fetcher: d.Fetcher,
		states:  d.Tracker,
	}, nil
}

// SwitchGame makes app the current game. It returns false, doing nothing,
// while a previous schema load is still running or ctx is done.
// Icon downloads of the previous game are abandoned.
func (s *Store) SwitchGame(ctx context.Context, app repository.AppID) bool {
	if ctx.Err() != nil || app == 0 {
		return false
	}
	release, ok := s.guard.TryAcquire()
	if !ok {
		logger.WithComponent("achievements").Debugf("schema load running, selection of %s dropped", app)
		return false
	}

	token := uuid.New()
	s.mu.Lock()
	s.app, s.token = app, token
	s.live.Store(token)
	s.rows, s.original = nil, nil
	s.mu.Unlock()
	dropped := s.iconReg.Invalidate()
	s.states.Forget(0, true)
	logger.WithComponent("achievements").Debugf("switching to app %s (token %s, %d icon downloads dropped)", app, token, dropped)

	s.ui.Post(func(v view.View) {
		v.ResetList(view.Achievements)
		v.ShowPlaceholder(view.Achievements, view.Fetching)
	})
	s.coord.Go("achievements", func(taskCtx context.Context) {
		defer release()
		s.load(taskCtx, app, token)
	})
	return true
}

func (s *Store) load(ctx context.Context, app repository.AppID, token uuid.UUID) {
	log := logger.WithComponent("achievements")
	schema, err := s.client.AppSchema(ctx, app)

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		log.Debugf("schema of app %s arrived for a stale selection, discarded", app)
		return
	}
	if err != nil {
		s.mu.Unlock()
		log.Warnf("cannot load achievements of app %s: %v", app, err)
		s.ui.Post(func(v view.View) {
			v.ConfirmList(view.Achievements)
			v.ShowPlaceholder(view.Achievements, view.Empty)
		})
		return
	}

	rows := make([]repository.Achievement, 0, len(schema))
	original := make(map[string]bool, len(schema))
	for _, a := range schema {
		if a.Key == "" {
			continue
		}
		if _, dup := original[a.Key]; dup {
			continue
		}
		a.AppID = app
		rows = append(rows, a)
		original[a.Key] = a.Unlocked
	}
	s.rows, s.original = rows, original
	entries := toEntries(rows)
	// posted under the lock so a concurrent bulk edit cannot be painted first
	s.ui.Post(func(v view.View) {
		for _, e := range entries {
			v.AddEntry(view.Achievements, e)
		}
		v.ConfirmList(view.Achievements)
		if len(entries) == 0 {
			v.ShowPlaceholder(view.Achievements, view.Empty)
		}
	})
	s.mu.Unlock()
	log.Infof("app %s: %d achievements", app, len(rows))

	for i, a := range rows {
		if ctx.Err() != nil {
			return
		}
		if !s.downloadIcon(a, token) {
			log.Debugf("app %s closed, %d icon requests skipped", app, len(rows)-i)
			return
		}
	}
}

func (s *Store) current(token uuid.UUID) bool {
	live, _ := s.live.Load().(uuid.UUID)
	return live == token
}

// downloadIcon requests the icon of a for the selection token. It returns
// false once token is stale. mu is held across Issue so Close cannot reset
// the token between the check and the new handle.
func (s *Store) downloadIcon(a repository.Achievement, token uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token != token {
		return false
	}
	key := repository.AchievementIconKey(a.AppID, a.Key)
	if s.store.Has(key) {
		s.states.Set(key, icons.Succeeded)
		s.paintIcon(key)
		return true
	}
	s.states.Set(key, icons.Pending)
	s.iconReg.Issue(key.String(), func(ctx context.Context) error {
		url, err := s.client.AchievementIconURL(ctx, a.AppID, a.Key, a.Unlocked)
		if err != nil {
			return err
		}
		return s.fetcher.Download(ctx, s.store, key, url)
	}, func(err error) {
		if !s.current(token) {
			return
		}
		if err != nil {
			logger.WithComponent("achievements").Debugf("icon %s not available: %v", key, err)
			s.states.Set(key, icons.Failed)
		} else {
			s.states.Set(key, icons.Succeeded)
		}
		s.paintIcon(key)
	})
	return true
}

func (s *Store) paintIcon(key repository.IconKey) {
	path := ""
	if s.states.Get(key) == icons.Succeeded {
		path = s.store.CachedPath(key)
	}
	s.ui.Post(func(v view.View) {
		v.RefreshIcon(key, path)
	})
}

// IconState returns the download state of the icon of achievement key of the current game.
func (s *Store) IconState(key string) icons.State {
	s.mu.RLock()
	app := s.app
	s.mu.RUnlock()
	return s.states.Get(repository.AchievementIconKey(app, key))
}

// UnlockAll, LockAll and InvertAll edit every row of the current game and
// return how many rows they touched.

func (s *Store) UnlockAll() int {
	return s.apply(func(bool) bool { return true })
}

func (s *Store) LockAll() int {
	return s.apply(func(bool) bool { return false })
}

func (s *Store) InvertAll() int {
	return s.apply(func(u bool) bool { return !u })
}

// apply computes the new rows on a copy and swaps them in, so readers see
// either the old or the new list, never a mix.
func (s *Store) apply(f func(unlocked bool) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) == 0 {
		return 0
	}
	next := make([]repository.Achievement, len(s.rows))
	copy(next, s.rows)
	for i := range next {
		next[i].Unlocked = f(next[i].Unlocked)
	}
	s.rows = next
	entries := toEntries(next)
	s.ui.Post(func(v view.View) {
		for _, e := range entries {
			v.RefreshEntry(view.Achievements, e)
		}
	})
	return len(next)
}

// Set changes one row.
func (s *Store) Set(key string, unlocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].Key != key {
			continue
		}
		next := make([]repository.Achievement, len(s.rows))
		copy(next, s.rows)
		next[i].Unlocked = unlocked
		s.rows = next
		entry := view.AchievementEntry(next[i])
		s.ui.Post(func(v view.View) {
			v.RefreshEntry(view.Achievements, entry)
		})
		return nil
	}
	return fmt.Errorf("achievement %q of app %s: %w", key, s.app, errdefs.ErrNotFound)
}

// Pending returns the rows whose state differs from the game client's.
func (s *Store) Pending() []repository.Achievement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []repository.Achievement
	for _, a := range s.rows {
		if a.Unlocked != s.original[a.Key] {
			out = append(out, a)
		}
	}
	return out
}

// Commit writes every pending change to the game client. Changes that were
// written stop being pending even when others fail. It returns how many were written.
func (s *Store) Commit(ctx context.Context) (int, error) {
	s.mu.RLock()
	token, app := s.token, s.app
	s.mu.RUnlock()
	pending := s.Pending()
	if len(pending) == 0 {
		return 0, nil
	}

	var (
		errs    []error
		written = map[string]bool{}
	)
	for _, a := range pending {
		if err := s.client.SetAchievementState(ctx, app, a.Key, a.Unlocked); err != nil {
			errs = append(errs, err)
			continue
		}
		written[a.Key] = a.Unlocked
	}

	s.mu.Lock()
	if s.token == token {
		for k, v := range written {
			s.original[k] = v
		}
	}
	s.mu.Unlock()

	log := logger.WithComponent("achievements")
	if err := errors.Join(errs...); err != nil {
		log.Warnf("committed %d of %d changes to app %s: %v", len(written), len(pending), app, err)
		return len(written), err
	}
	log.Infof("committed %d changes to app %s", len(written), app)
	return len(written), nil
}

// Close leaves the current game: its token becomes stale and its icon
// downloads are abandoned.
func (s *Store) Close() {
	s.mu.Lock()
	s.app, s.token = 0, uuid.Nil
	s.live.Store(uuid.Nil)
	s.rows, s.original = nil, nil
	s.mu.Unlock()
	s.iconReg.Invalidate()
	s.states.Forget(0, true)
	s.ui.Post(func(v view.View) {
		v.ResetList(view.Achievements)
	})
}

// Achievements returns a copy of the current rows.
func (s *Store) Achievements() []repository.Achievement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]repository.Achievement, len(s.rows))
	copy(out, s.rows)
	return out
}

// CurrentApp returns the selected game, if any.
func (s *Store) CurrentApp() (repository.AppID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.app, s.app != 0
}

// Loading reports whether a schema load is in progress.
func (s *Store) Loading() bool {
	return s.guard.Held()
}

func toEntries(rows []repository.Achievement) []view.Entry {
	entries := make([]view.Entry, len(rows))
	for i, a := range rows {
		entries[i] = view.AchievementEntry(a)
	}
	return entries
}
