// Package catalog is the app catalog service: the AppID->name database, the
// owned-app set, app icon downloads and the games list refresh.
package catalog

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bassista/go_sam/internal/cache"
	"github.com/bassista/go_sam/internal/gameclient"
	"github.com/bassista/go_sam/internal/icons"
	"github.com/bassista/go_sam/internal/repository"
	"github.com/bassista/go_sam/internal/tasks"
	"github.com/bassista/go_sam/internal/view"
)

const (
	DefaultStaleness    = 72 * time.Hour
	DefaultFetchTimeout = 30 * time.Second

	GamesGuard       = "games"
	AppIconsRegistry = "app-icons"
)

// Deps are the collaborators of a Catalog. Names, Owned, Tracker and Now are
// optional.
type Deps struct {
	URL          string
	Staleness    time.Duration
	FetchTimeout time.Duration

	Repo        repository.Repository[repository.CatalogDocument]
	Client      gameclient.GameClient
	Coordinator *tasks.Coordinator
	Dispatcher  *view.Dispatcher
	IconStore   *icons.Store
	Fetcher     *icons.Fetcher

	Names   *cache.NameStore
	Owned   *cache.OwnedSet
	Tracker *icons.Tracker
	Now     func() time.Time
}

// Catalog is created once by the application container and shared by reference.
type Catalog struct {
	url          string
	staleness    time.Duration
	fetchTimeout time.Duration
	http         *http.Client
	now          func() time.Time

	repo    repository.Repository[repository.CatalogDocument]
	client  gameclient.GameClient
	names   *cache.NameStore
	owned   *cache.OwnedSet
	coord   *tasks.Coordinator
	guard   *tasks.Guard
	iconReg *tasks.Registry
	ui      *view.Dispatcher
	store   *icons.Store
	fetcher *icons.Fetcher
	states  *icons.Tracker

	// updateMu serializes name database updates and reloads.
	updateMu  sync.Mutex
	downloads atomic.Int64

	sinkMu sync.RWMutex
	sinks  []func(repository.AppID)
}

func New(d Deps) (*Catalog, error) {
	switch {
	case d.Repo == nil:
		return nil, errors.New("catalog repository is required")
	case d.Client == nil:
		return nil, errors.New("game client is required")
	case d.Coordinator == nil || d.Dispatcher == nil:
		return nil, errors.New("coordinator and dispatcher are required")
	case d.IconStore == nil || d.Fetcher == nil:
		return nil, errors.New("icon store and fetcher are required")
	case d.URL == "":
		return nil, errors.New("catalog url is required")
	}
	if d.Staleness <= 0 {
		d.Staleness = DefaultStaleness
	}
	if d.FetchTimeout <= 0 {
		d.FetchTimeout = DefaultFetchTimeout
	}
	if d.Names == nil {
		d.Names = cache.NewNameStore()
	}
	if d.Owned == nil {
		d.Owned = cache.NewOwnedSet()
	}
	if d.Tracker == nil {
		d.Tracker = icons.NewTracker()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	c := &Catalog{
		url:          d.URL,
		staleness:    d.Staleness,
		fetchTimeout: d.FetchTimeout,
		http:         &http.Client{},
		now:          d.Now,
		repo:         d.Repo,
		client:       d.Client,
		names:        d.Names,
		owned:        d.Owned,
		coord:        d.Coordinator,
		guard:        d.Coordinator.Guard(GamesGuard),
		iconReg:      d.Coordinator.NewRegistry(AppIconsRegistry),
		ui:           d.Dispatcher,
		store:        d.IconStore,
		fetcher:      d.Fetcher,
		states:       d.Tracker,
	}
	c.Subscribe(c.paintIcon)
	return c, nil
}

// AppName returns the catalog name of id, or "" when unknown.
func (c *Catalog) AppName(id repository.AppID) string {
	return c.names.Name(id)
}

// AllApps returns a copy of the whole name database.
func (c *Catalog) AllApps() map[repository.AppID]string {
	return c.names.All()
}

// AppIsOwned reports whether id was in the last owned-apps answer.
func (c *Catalog) AppIsOwned(id repository.AppID) bool {
	return c.owned.Contains(id)
}

// OwnedApps returns the owned set, sorted.
func (c *Catalog) OwnedApps() []repository.AppID {
	return c.owned.Slice()
}

// Refreshing reports whether a games refresh is in progress.
func (c *Catalog) Refreshing() bool {
	return c.guard.Held()
}

// Downloads counts successful remote catalog downloads.
func (c *Catalog) Downloads() int64 {
	return c.downloads.Load()
}

// LastUpdate returns the timestamp (unix ms) of the loaded name database.
func (c *Catalog) LastUpdate() int64 {
	return c.names.LastUpdate()
}
