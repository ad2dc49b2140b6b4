package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bassista/go_sam/internal/achievements"
	"github.com/bassista/go_sam/internal/cache"
	"github.com/bassista/go_sam/internal/catalog"
	"github.com/bassista/go_sam/internal/config"
	"github.com/bassista/go_sam/internal/gameclient"
	"github.com/bassista/go_sam/internal/icons"
	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/repository"
	"github.com/bassista/go_sam/internal/scheduler"
	"github.com/bassista/go_sam/internal/tasks"
	"github.com/bassista/go_sam/internal/view"
)

// App is the application container (long-lived services + lifecycle context).
// Its On* entry points are meant to run on the UI goroutine, i.e. inside a
// Dispatcher message; they only schedule work and never block on I/O.
type App struct {
	Config       *config.Config
	Client       gameclient.GameClient
	Library      repository.Saver[repository.LibraryDocument]
	Catalog      *catalog.Catalog
	Achievements *achievements.Store
	Coordinator  *tasks.Coordinator
	Dispatcher   *view.Dispatcher
	View         *view.MemoryView

	BaseCtx context.Context
	Cancel  context.CancelFunc

	stopped []<-chan struct{}
}

// New wires the services. library may be nil when the client has nothing to persist.
func New(cfg *config.Config, client gameclient.GameClient, library repository.Saver[repository.LibraryDocument], mv *view.MemoryView) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if client == nil {
		return nil, errors.New("game client is nil")
	}
	if mv == nil {
		return nil, errors.New("view is nil")
	}

	catalogRepo, err := repository.NewJSONFile[repository.CatalogDocument](cfg.Catalog.CacheFile)
	if err != nil {
		return nil, fmt.Errorf("catalog cache file: %w", err)
	}
	appIcons, err := icons.NewStore(cfg.Icons.AppDir)
	if err != nil {
		return nil, err
	}
	achievementIcons, err := icons.NewStore(cfg.Icons.AchievementDir)
	if err != nil {
		return nil, err
	}
	fetcher := icons.NewFetcher(cfg.Icons.FetchTimeout, cfg.Icons.MaxBytes)

	ctx, cancel := context.WithCancel(context.Background())
	coord := tasks.NewCoordinator(ctx, cfg.Icons.MaxOutstanding)
	ui := view.NewDispatcher(mv)

	cat, err := catalog.New(catalog.Deps{
		URL:          cfg.Catalog.URL,
		Staleness:    cfg.Catalog.Staleness,
		FetchTimeout: cfg.Catalog.FetchTimeout,
		Repo:         catalogRepo,
		Client:       client,
		Coordinator:  coord,
		Dispatcher:   ui,
		IconStore:    appIcons,
		Fetcher:      fetcher,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	ach, err := achievements.New(achievements.Deps{
		Client:      client,
		Coordinator: coord,
		Dispatcher:  ui,
		IconStore:   achievementIcons,
		Fetcher:     fetcher,
	})
	if err != nil {
		cancel()
		return nil, err
	}

	return &App{
		Config:       cfg,
		Client:       client,
		Library:      library,
		Catalog:      cat,
		Achievements: ach,
		Coordinator:  coord,
		Dispatcher:   ui,
		View:         mv,
		BaseCtx:      ctx,
		Cancel:       cancel,
	}, nil
}

// StartWatchers starts the UI loop, the catalog file watcher, the catalog
// poller and, for clients with local state, the persistence scheduler.
func (a *App) StartWatchers() error {
	go a.Dispatcher.Run(a.BaseCtx)

	if err := a.Catalog.StartWatcher(a.BaseCtx); err != nil {
		return fmt.Errorf("cannot start catalog file watcher: %w", err)
	}

	poller := scheduler.NewPollingScheduler(a.Catalog, a.Config.Catalog.Poll)
	a.stopped = append(a.stopped, poller.Start(a.BaseCtx))

	if store, ok := a.Client.(cache.PersistableStore); ok && a.Library != nil {
		a.stopped = append(a.stopped, cache.StartPersistenceScheduler(a.BaseCtx, store, a.Library, a.Config.Client.PersistInterval))
	}
	return nil
}

// Shutdown cancels every background activity and waits for it to finish,
// including the final flush of the library.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
	a.Coordinator.Wait()
	for _, done := range a.stopped {
		<-done
	}
	logger.WithComponent("app").Info("background work stopped")
}

// OnRefreshRequested rebuilds the games list. False means a refresh is already running.
func (a *App) OnRefreshRequested() bool {
	return a.Catalog.RefreshOwnedApps(a.BaseCtx)
}

// OnGameSelected shows the achievements of app. False means the selection was dropped.
func (a *App) OnGameSelected(app repository.AppID) bool {
	return a.Achievements.SwitchGame(a.BaseCtx, app)
}

// OnClose leaves the achievements page.
func (a *App) OnClose() {
	a.Achievements.Close()
}

func (a *App) OnFilter(kind view.ListKind, text string) {
	a.Dispatcher.Post(func(v view.View) {
		v.Filter(kind, text)
	})
}

func (a *App) OnUnlockAll() int { return a.Achievements.UnlockAll() }

func (a *App) OnLockAll() int { return a.Achievements.LockAll() }

func (a *App) OnInvertAll() int { return a.Achievements.InvertAll() }

func (a *App) OnSetAchievement(key string, unlocked bool) error {
	return a.Achievements.Set(key, unlocked)
}

// OnCommit writes pending achievement changes to the game client. Unlike the
// other entry points it blocks on the client and must not run on the UI goroutine.
func (a *App) OnCommit(ctx context.Context) (int, error) {
	return a.Achievements.Commit(ctx)
}
