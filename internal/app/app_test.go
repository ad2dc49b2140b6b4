package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassista/go_sam/internal/config"
	"github.com/bassista/go_sam/internal/gameclient"
	"github.com/bassista/go_sam/internal/repository"
	"github.com/bassista/go_sam/internal/view"
)

func testConfig(t *testing.T, catalogURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Catalog: config.CatalogConfig{
			URL:          catalogURL,
			CacheFile:    filepath.Join(dir, "app_names.json"),
			Staleness:    72 * time.Hour,
			Poll:         time.Hour,
			FetchTimeout: time.Second,
		},
		Icons: config.IconsConfig{
			AppDir:         filepath.Join(dir, "app_icons"),
			AchievementDir: filepath.Join(dir, "achievement_icons"),
			MaxOutstanding: 3,
			FetchTimeout:   time.Second,
			MaxBytes:       1 << 20,
		},
		Client: config.ClientConfig{
			Type:            config.ClientTypeFile,
			LibraryFile:     filepath.Join(dir, "library.json"),
			PersistInterval: 20 * time.Millisecond,
		},
	}
}

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/applist" {
			_, _ = w.Write([]byte(`{"applist":{"apps":[{"appid":100,"name":"Alpha"},{"appid":200,"name":"Beta"}]}}`))
			return
		}
		_, _ = w.Write([]byte("jpeg"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_Validation(t *testing.T) {
	cfg := testConfig(t, "http://localhost/applist")
	mv := view.NewMemoryView()
	client := gameclient.NewFileClient()

	_, err := New(nil, client, nil, mv)
	assert.Error(t, err)
	_, err = New(cfg, nil, nil, mv)
	assert.Error(t, err)
	_, err = New(cfg, client, nil, nil)
	assert.Error(t, err)

	a, err := New(cfg, client, nil, mv)
	require.NoError(t, err)
	assert.Equal(t, int64(3), a.Coordinator.Cap())
	a.Shutdown()
}

func TestApp_EndToEnd(t *testing.T) {
	srv := newCatalogServer(t)
	cfg := testConfig(t, srv.URL+"/applist")

	lib := repository.LibraryDocument{Games: []repository.LibraryGame{
		{AppID: 100, IconURL: srv.URL + "/icons/100.jpg", Achievements: []repository.Achievement{
			{Key: "WIN", Name: "Winner", IconURL: srv.URL + "/icons/win.jpg"},
			{Key: "LOSE", Name: "Loser", IconURL: srv.URL + "/icons/lose.jpg"},
		}},
		{AppID: 200, IconURL: srv.URL + "/icons/200.jpg"},
	}}
	client := gameclient.NewFileClientFromDocument(lib)
	repo, err := repository.NewJSONFile[repository.LibraryDocument](cfg.Client.LibraryFile)
	require.NoError(t, err)

	mv := view.NewMemoryView()
	a, err := New(cfg, client, repo, mv)
	require.NoError(t, err)
	require.NoError(t, a.StartWatchers())

	ctx := context.Background()
	var refreshed bool
	require.NoError(t, a.Dispatcher.Do(ctx, func(view.View) { refreshed = a.OnRefreshRequested() }))
	assert.True(t, refreshed)

	require.Eventually(t, func() bool {
		rows := mv.Rows(view.Games)
		return len(rows) == 2 && rows[0].IconPath != "" && rows[1].IconPath != ""
	}, 3*time.Second, 10*time.Millisecond)
	assert.True(t, a.Catalog.AppIsOwned(100))
	assert.Equal(t, "Beta", mv.Rows(view.Games)[1].Title)

	require.NoError(t, a.Dispatcher.Do(ctx, func(view.View) { a.OnGameSelected(100) }))
	require.Eventually(t, func() bool { return len(mv.Rows(view.Achievements)) == 2 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Dispatcher.Do(ctx, func(view.View) { a.OnUnlockAll() }))
	n, err := a.OnCommit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, a.Dispatcher.Do(ctx, func(view.View) { a.OnFilter(view.Games, "alp") }))
	require.Eventually(t, func() bool { return len(mv.Rows(view.Games)) == 1 }, time.Second, 10*time.Millisecond)

	a.Shutdown()

	saved, err := repo.Load(ctx)
	require.NoError(t, err)
	for _, ach := range saved.Games[0].Achievements {
		assert.True(t, ach.Unlocked, "final flush persisted %s", ach.Key)
	}
}

func TestApp_OnCloseClearsAchievements(t *testing.T) {
	srv := newCatalogServer(t)
	cfg := testConfig(t, srv.URL+"/applist")
	lib := repository.LibraryDocument{Games: []repository.LibraryGame{
		{AppID: 100, Achievements: []repository.Achievement{{Key: "WIN", IconURL: srv.URL + "/win.jpg"}}},
	}}
	a, err := New(cfg, gameclient.NewFileClientFromDocument(lib), nil, view.NewMemoryView())
	require.NoError(t, err)
	defer a.Shutdown()

	require.True(t, a.OnGameSelected(100))
	a.Coordinator.Wait()
	require.Len(t, a.Achievements.Achievements(), 1)

	a.OnClose()
	assert.Empty(t, a.Achievements.Achievements())
	_, ok := a.Achievements.CurrentApp()
	assert.False(t, ok)
}

func TestShutdown_NilSafe(t *testing.T) {
	var a *App
	a.Shutdown()
}
