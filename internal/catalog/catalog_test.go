package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bassista/go_sam/internal/gameclient"
	"github.com/bassista/go_sam/internal/gameclient/mocks"
	"github.com/bassista/go_sam/internal/icons"
	"github.com/bassista/go_sam/internal/repository"
	"github.com/bassista/go_sam/internal/tasks"
	"github.com/bassista/go_sam/internal/view"
)

const appListJSON = `{"applist":{"apps":[
	{"appid":100,"name":"Alpha"},
	{"appid":200,"name":"Beta"},
	{"appid":300,"name":"Gamma"}]}}`

type steamStub struct {
	srv         *httptest.Server
	catalogHits atomic.Int32
	iconHits    atomic.Int32
	failCatalog atomic.Bool
	iconGate    chan struct{}
}

func newSteamStub(t *testing.T) *steamStub {
	t.Helper()
	s := &steamStub{}
	mux := http.NewServeMux()
	mux.HandleFunc("/applist", func(w http.ResponseWriter, r *http.Request) {
		s.catalogHits.Add(1)
		if s.failCatalog.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(appListJSON))
	})
	mux.HandleFunc("/icons/", func(w http.ResponseWriter, r *http.Request) {
		s.iconHits.Add(1)
		if s.iconGate != nil {
			<-s.iconGate
		}
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("jpeg:" + r.URL.Path))
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

type fakeClock struct{ ms atomic.Int64 }

func (f *fakeClock) Now() time.Time { return time.UnixMilli(f.ms.Load()) }
func (f *fakeClock) Advance(d time.Duration) { f.ms.Add(d.Milliseconds()) }

type harness struct {
	cat   *Catalog
	coord *tasks.Coordinator
	ui    *view.Dispatcher
	mv    *view.MemoryView
	store *icons.Store
	repo  *repository.JSONFile[repository.CatalogDocument]
	clock *fakeClock
	stub  *steamStub
}

func library(stub *steamStub, ids ...repository.AppID) repository.LibraryDocument {
	doc := repository.LibraryDocument{}
	for _, id := range ids {
		icon := fmt.Sprintf("%s/icons/%d.jpg", stub.srv.URL, id)
		if id >= 900 {
			icon = fmt.Sprintf("%s/icons/missing-%d.jpg", stub.srv.URL, id)
		}
		doc.Games = append(doc.Games, repository.LibraryGame{AppID: id, IconURL: icon})
	}
	return doc
}

func newHarness(t *testing.T, client gameclient.GameClient, stub *steamStub) *harness {
	t.Helper()
	dir := t.TempDir()
	repo, err := repository.NewJSONFile[repository.CatalogDocument](filepath.Join(dir, "app_names.json"))
	require.NoError(t, err)
	store, err := icons.NewStore(filepath.Join(dir, "app_icons"))
	require.NoError(t, err)

	clock := &fakeClock{}
	clock.ms.Store(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())

	coord := tasks.NewCoordinator(context.Background(), 10)
	mv := view.NewMemoryView()
	ui := view.NewDispatcher(mv)
	cat, err := New(Deps{
		URL:         stub.srv.URL + "/applist",
		Staleness:   72 * time.Hour,
		Repo:        repo,
		Client:      client,
		Coordinator: coord,
		Dispatcher:  ui,
		IconStore:   store,
		Fetcher:     icons.NewFetcher(time.Second, 1<<20),
		Now:         clock.Now,
	})
	require.NoError(t, err)
	t.Cleanup(coord.Wait)
	return &harness{cat: cat, coord: coord, ui: ui, mv: mv, store: store, repo: repo, clock: clock, stub: stub}
}

// settle waits for background work and paints everything it posted.
func (h *harness) settle() {
	h.coord.Wait()
	h.ui.Drain()
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestUpdateNameDatabase_AtMostOneDownloadPerWindow(t *testing.T) {
	stub := newSteamStub(t)
	h := newHarness(t, gameclient.NewFileClient(), stub)
	ctx := context.Background()

	require.NoError(t, h.cat.UpdateNameDatabase(ctx))
	require.NoError(t, h.cat.UpdateNameDatabase(ctx))
	h.clock.Advance(71 * time.Hour)
	require.NoError(t, h.cat.UpdateNameDatabase(ctx))

	assert.Equal(t, int32(1), stub.catalogHits.Load())
	assert.Equal(t, "Beta", h.cat.AppName(200))
	assert.Equal(t, "", h.cat.AppName(999))
	assert.Len(t, h.cat.AllApps(), 3)
	assert.True(t, h.repo.Exists(), "downloaded catalog is persisted")

	h.clock.Advance(2 * time.Hour)
	require.NoError(t, h.cat.UpdateNameDatabase(ctx))
	assert.Equal(t, int32(2), stub.catalogHits.Load())
	assert.Equal(t, int64(2), h.cat.Downloads())
}

func TestUpdateNameDatabase_UsesFreshCacheFile(t *testing.T) {
	stub := newSteamStub(t)
	h := newHarness(t, gameclient.NewFileClient(), stub)
	ctx := context.Background()

	doc := &repository.CatalogDocument{
		Metadata: repository.Metadata{LastUpdate: h.clock.Now().Add(-time.Hour).UnixMilli()},
		Apps:     []repository.AppEntry{{AppID: 42, Name: "Cached"}},
	}
	require.NoError(t, h.repo.Save(ctx, doc))

	require.NoError(t, h.cat.UpdateNameDatabase(ctx))
	assert.Equal(t, int32(0), stub.catalogHits.Load())
	assert.Equal(t, "Cached", h.cat.AppName(42))
}

func TestUpdateNameDatabase_FailureKeepsPreviousNames(t *testing.T) {
	stub := newSteamStub(t)
	h := newHarness(t, gameclient.NewFileClient(), stub)
	ctx := context.Background()

	require.NoError(t, h.cat.UpdateNameDatabase(ctx))
	last := h.cat.LastUpdate()

	stub.failCatalog.Store(true)
	h.clock.Advance(100 * time.Hour)
	assert.Error(t, h.cat.UpdateNameDatabase(ctx))
	assert.Equal(t, "Alpha", h.cat.AppName(100))
	assert.Equal(t, last, h.cat.LastUpdate())
}

func TestRefreshOwnedApps_AppIsOwned(t *testing.T) {
	stub := newSteamStub(t)
	client := gameclient.NewFileClientFromDocument(library(stub, 100, 200))
	h := newHarness(t, client, stub)

	require.True(t, h.cat.RefreshOwnedApps(context.Background()))
	h.settle()

	assert.True(t, h.cat.AppIsOwned(100))
	assert.True(t, h.cat.AppIsOwned(200))
	assert.False(t, h.cat.AppIsOwned(999))
	assert.False(t, h.cat.Refreshing())
}

func TestRefreshOwnedApps_FillsListAndIcons(t *testing.T) {
	stub := newSteamStub(t)
	client := gameclient.NewFileClientFromDocument(library(stub, 100, 300, 555, 901))
	h := newHarness(t, client, stub)

	require.True(t, h.cat.RefreshOwnedApps(context.Background()))
	h.settle()

	rows := h.mv.Rows(view.Games)
	require.Len(t, rows, 4)
	assert.Equal(t, "Alpha", rows[0].Title)
	assert.Equal(t, "Gamma", rows[1].Title)
	assert.Equal(t, "555", rows[2].Title, "apps missing from the catalog are listed by id")
	assert.Equal(t, view.NoPlaceholder, h.mv.Placeholder(view.Games))

	assert.Equal(t, icons.Succeeded, h.cat.IconState(100))
	assert.Equal(t, h.store.Path(repository.AppIconKey(100)), rows[0].IconPath)
	assert.Equal(t, icons.Failed, h.cat.IconState(901))
	assert.Empty(t, rows[3].IconPath)
	assert.LessOrEqual(t, h.coord.Peak(), h.coord.Cap())
}

func TestRefreshOwnedApps_EmptyLibraryShowsEmptyPlaceholder(t *testing.T) {
	stub := newSteamStub(t)
	gate := make(chan time.Time)
	client := &mocks.GameClient{}
	client.On("OwnedApps", mock.Anything).WaitUntil(gate).Return([]repository.AppID{}, nil)
	h := newHarness(t, client, stub)

	require.True(t, h.cat.RefreshOwnedApps(context.Background()))
	assert.Equal(t, 1, h.ui.Tick())
	assert.Equal(t, view.Fetching, h.mv.Placeholder(view.Games))
	assert.True(t, h.cat.Refreshing())

	close(gate)
	h.settle()
	assert.Equal(t, view.Empty, h.mv.Placeholder(view.Games))
	assert.Empty(t, h.mv.Rows(view.Games))
	assert.False(t, h.cat.Refreshing())
}

func TestRefreshOwnedApps_ClientFailureShowsEmptyPlaceholder(t *testing.T) {
	stub := newSteamStub(t)
	client := &mocks.GameClient{}
	client.On("OwnedApps", mock.Anything).Return(nil, assert.AnError)
	h := newHarness(t, client, stub)

	require.True(t, h.cat.RefreshOwnedApps(context.Background()))
	h.settle()
	assert.Equal(t, view.Empty, h.mv.Placeholder(view.Games))
	client.AssertExpectations(t)
}

func TestRefreshOwnedApps_HeldGuardDropsRequest(t *testing.T) {
	stub := newSteamStub(t)
	client := &mocks.GameClient{}
	h := newHarness(t, client, stub)

	release, ok := h.coord.Guard(GamesGuard).TryAcquire()
	require.True(t, ok)

	assert.False(t, h.cat.RefreshOwnedApps(context.Background()))
	assert.Equal(t, 0, h.ui.Len(), "a dropped refresh posts nothing")
	h.coord.Wait()
	assert.Equal(t, int64(0), h.coord.Peak())
	assert.Equal(t, int32(0), stub.catalogHits.Load())
	client.AssertNotCalled(t, "OwnedApps", mock.Anything)

	release()
	client.On("OwnedApps", mock.Anything).Return([]repository.AppID{}, nil)
	assert.True(t, h.cat.RefreshOwnedApps(context.Background()))
	h.settle()
}

func TestDownloadAppIcon_FailureNotifiesOnceAndWritesNothing(t *testing.T) {
	stub := newSteamStub(t)
	client := gameclient.NewFileClientFromDocument(library(stub, 900))
	h := newHarness(t, client, stub)

	var notified atomic.Int32
	h.cat.Subscribe(func(id repository.AppID) {
		if id == 900 {
			notified.Add(1)
		}
	})

	h.cat.DownloadAppIcon(900)
	h.settle()

	assert.Equal(t, int32(1), notified.Load())
	assert.Equal(t, icons.Failed, h.cat.IconState(900))
	assert.False(t, h.store.Has(repository.AppIconKey(900)))
	_, err := os.Stat(h.store.Path(repository.AppIconKey(900)))
	assert.True(t, os.IsNotExist(err))

	path, painted := h.mv.Icon(repository.AppIconKey(900))
	assert.True(t, painted)
	assert.Empty(t, path, "missing-icon state")
}

func TestDownloadAppIcon_CacheHitNotifiesWithoutNetwork(t *testing.T) {
	stub := newSteamStub(t)
	client := gameclient.NewFileClientFromDocument(library(stub, 100))
	h := newHarness(t, client, stub)
	require.NoError(t, h.store.Write(repository.AppIconKey(100), []byte("cached")))

	var notified atomic.Int32
	h.cat.Subscribe(func(repository.AppID) { notified.Add(1) })

	h.cat.DownloadAppIcon(100)
	assert.Equal(t, int32(1), notified.Load(), "cache hit notifies synchronously")
	assert.Equal(t, icons.Succeeded, h.cat.IconState(100))
	h.settle()
	assert.Equal(t, int32(0), stub.iconHits.Load())
	assert.Equal(t, h.store.Path(repository.AppIconKey(100)), h.cat.IconPath(100))
}

func TestDownloadAppIcon_DeduplicatesInFlight(t *testing.T) {
	stub := newSteamStub(t)
	stub.iconGate = make(chan struct{})
	client := gameclient.NewFileClientFromDocument(library(stub, 100))
	h := newHarness(t, client, stub)

	var notified atomic.Int32
	h.cat.Subscribe(func(repository.AppID) { notified.Add(1) })

	h.cat.DownloadAppIcon(100)
	h.cat.DownloadAppIcon(100)
	assert.Equal(t, icons.Pending, h.cat.IconState(100))
	close(stub.iconGate)
	h.settle()

	assert.Equal(t, int32(1), stub.iconHits.Load())
	assert.Equal(t, int32(1), notified.Load())
	assert.Equal(t, icons.Succeeded, h.cat.IconState(100))
}

func TestDownloadAppIcon_WrittenButNotCompletedNotifiesOnce(t *testing.T) {
	stub := newSteamStub(t)
	stub.iconGate = make(chan struct{})
	client := gameclient.NewFileClientFromDocument(library(stub, 100))
	h := newHarness(t, client, stub)

	var notified atomic.Int32
	h.cat.Subscribe(func(repository.AppID) { notified.Add(1) })

	h.cat.DownloadAppIcon(100)
	require.Eventually(t, func() bool { return stub.iconHits.Load() == 1 }, time.Second, 5*time.Millisecond)
	// file already on disk, completion not delivered yet
	require.NoError(t, h.store.Write(repository.AppIconKey(100), []byte("jpeg")))

	h.cat.DownloadAppIcon(100)
	assert.Equal(t, int32(0), notified.Load(), "only the in-flight download may notify")

	close(stub.iconGate)
	h.settle()
	assert.Equal(t, int32(1), notified.Load())
	assert.Equal(t, icons.Succeeded, h.cat.IconState(100))
}

func TestInvalidateIcon(t *testing.T) {
	stub := newSteamStub(t)
	client := gameclient.NewFileClientFromDocument(library(stub, 100))
	h := newHarness(t, client, stub)
	h.cat.DownloadAppIcon(100)
	h.settle()
	require.True(t, h.store.Has(repository.AppIconKey(100)))

	require.NoError(t, h.cat.InvalidateIcon(100))
	assert.False(t, h.store.Has(repository.AppIconKey(100)))
	assert.Equal(t, icons.NotRequested, h.cat.IconState(100))

	h.cat.DownloadAppIcon(100)
	h.settle()
	assert.Equal(t, int32(2), stub.iconHits.Load())
}

func TestStartWatcher_ReloadsExternalChanges(t *testing.T) {
	stub := newSteamStub(t)
	h := newHarness(t, gameclient.NewFileClient(), stub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.cat.StartWatcher(ctx))

	data := `{"metadata":{"lastUpdate":5},"apps":[{"appid":7,"name":"External"}]}`
	require.NoError(t, os.WriteFile(h.repo.Path(), []byte(data), 0o644))

	assert.Eventually(t, func() bool {
		return h.cat.AppName(7) == "External"
	}, 3*time.Second, 20*time.Millisecond)
}
