package controller

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/bassista/go_sam/internal/app"
	"github.com/bassista/go_sam/internal/config"
	"github.com/bassista/go_sam/internal/gameclient"
	"github.com/bassista/go_sam/internal/repository"
	"github.com/bassista/go_sam/internal/view"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newSteamStub serves the app list and answers every other path with an image.
func newSteamStub(t *testing.T) *httptest.Server {
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

func testLibrary(base string) repository.LibraryDocument {
	return repository.LibraryDocument{Games: []repository.LibraryGame{
		{AppID: 100, IconURL: base + "/icons/100.jpg", Achievements: []repository.Achievement{
			{Key: "WIN", Name: "Winner", IconURL: base + "/icons/win.jpg"},
			{Key: "LOSE", Name: "Loser", IconURL: base + "/icons/lose.jpg"},
		}},
		{AppID: 200, IconURL: base + "/icons/200.jpg"},
	}}
}

// newTestApp starts an App against srv. Cleanups registered after this call
// run before the App shuts down.
func newTestApp(t *testing.T, srv *httptest.Server, client gameclient.GameClient) *app.App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: 2 * time.Second, CORSAllowedOrigins: "*"},
		Catalog: config.CatalogConfig{
			URL:          srv.URL + "/applist",
			CacheFile:    filepath.Join(dir, "app_names.json"),
			Staleness:    72 * time.Hour,
			Poll:         time.Hour,
			FetchTimeout: time.Second,
		},
		Icons: config.IconsConfig{
			AppDir:         filepath.Join(dir, "app_icons"),
			AchievementDir: filepath.Join(dir, "achievement_icons"),
			MaxOutstanding: 2,
			FetchTimeout:   time.Second,
			MaxBytes:       1 << 20,
		},
		Client: config.ClientConfig{Type: config.ClientTypeFile, PersistInterval: time.Second},
	}
	a, err := app.New(cfg, client, nil, view.NewMemoryView())
	require.NoError(t, err)
	require.NoError(t, a.StartWatchers())
	t.Cleanup(a.Shutdown)
	return a
}

func doRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
