package gameclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/containerd/errdefs"
	"github.com/goccy/go-json"

	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/repository"
)

const (
	DefaultWebAPIBaseURL = "https://api.steampowered.com"
	webRequestTimeout    = 20 * time.Second
	mediaBaseURL         = "https://media.steampowered.com/steamcommunity/public/images/apps"
)

// WebClient reads ownership and achievements from the Steam Web API.
// The Web API is read-only for achievements: SetAchievementState always fails.
type WebClient struct {
	http    *http.Client
	baseURL string
	apiKey  string
	steamID string

	mu      sync.RWMutex
	icons   map[repository.AppID]string
	schemas map[repository.AppID][]repository.Achievement
}

func NewWebClient(baseURL, apiKey, steamID string) (*WebClient, error) {
	if apiKey == "" || steamID == "" {
		return nil, fmt.Errorf("web client needs an api key and a steam id: %w", errdefs.ErrInvalidArgument)
	}
	if baseURL == "" {
		baseURL = DefaultWebAPIBaseURL
	}
	return &WebClient{
		http:    &http.Client{Timeout: webRequestTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		steamID: steamID,
		icons:   map[repository.AppID]string{},
		schemas: map[repository.AppID][]repository.Achievement{},
	}, nil
}

type ownedGamesResponse struct {
	Response struct {
		GameCount int `json:"game_count"`
		Games     []struct {
			AppID      repository.AppID `json:"appid"`
			Name       string           `json:"name"`
			ImgIconURL string           `json:"img_icon_url"`
		} `json:"games"`
	} `json:"response"`
}

type schemaResponse struct {
	Game struct {
		GameName           string `json:"gameName"`
		AvailableGameStats struct {
			Achievements []struct {
				Name        string `json:"name"`
				DisplayName string `json:"displayName"`
				Description string `json:"description"`
				Hidden      int    `json:"hidden"`
				Icon        string `json:"icon"`
				IconGray    string `json:"icongray"`
			} `json:"achievements"`
		} `json:"availableGameStats"`
	} `json:"game"`
}

type playerAchievementsResponse struct {
	PlayerStats struct {
		Success      bool   `json:"success"`
		Error        string `json:"error"`
		Achievements []struct {
			APIName  string `json:"apiname"`
			Achieved int    `json:"achieved"`
		} `json:"achievements"`
	} `json:"playerstats"`
}

func (w *WebClient) OwnedApps(ctx context.Context) ([]repository.AppID, error) {
	var resp ownedGamesResponse
	err := w.getJSON(ctx, "/IPlayerService/GetOwnedGames/v1/", url.Values{
		"steamid":                   {w.steamID},
		"include_appinfo":           {"1"},
		"include_played_free_games": {"1"},
	}, &resp)
	if err != nil {
		return nil, err
	}

	ids := make([]repository.AppID, 0, len(resp.Response.Games))
	w.mu.Lock()
	for _, g := range resp.Response.Games {
		if g.AppID == 0 {
			continue
		}
		ids = append(ids, g.AppID)
		if g.ImgIconURL != "" {
			w.icons[g.AppID] = fmt.Sprintf("%s/%d/%s.jpg", mediaBaseURL, uint32(g.AppID), g.ImgIconURL)
		}
	}
	w.mu.Unlock()
	logger.WithComponent("web-client").Debugf("owned games: %d", len(ids))
	return repository.SortAppIDs(ids), nil
}

// AppSchema merges the game schema with the player's unlock state.
func (w *WebClient) AppSchema(ctx context.Context, app repository.AppID) ([]repository.Achievement, error) {
	var schema schemaResponse
	if err := w.getJSON(ctx, "/ISteamUserStats/GetSchemaForGame/v2/", url.Values{"appid": {app.String()}}, &schema); err != nil {
		return nil, err
	}
	unlocked, err := w.playerAchievements(ctx, app)
	if err != nil {
		return nil, err
	}

	defs := schema.Game.AvailableGameStats.Achievements
	out := make([]repository.Achievement, 0, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			continue
		}
		out = append(out, repository.Achievement{
			AppID:         app,
			Key:           d.Name,
			Name:          d.DisplayName,
			Description:   d.Description,
			Hidden:        d.Hidden != 0,
			Unlocked:      unlocked[d.Name],
			IconURL:       d.Icon,
			IconLockedURL: d.IconGray,
		})
	}

	w.mu.Lock()
	w.schemas[app] = out
	w.mu.Unlock()

	result := make([]repository.Achievement, len(out))
	copy(result, out)
	return result, nil
}

func (w *WebClient) AchievementState(ctx context.Context, app repository.AppID, key string) (bool, error) {
	unlocked, err := w.playerAchievements(ctx, app)
	if err != nil {
		return false, err
	}
	state, ok := unlocked[key]
	if !ok {
		return false, fmt.Errorf("achievement %s/%s: %w", app, key, errdefs.ErrNotFound)
	}
	return state, nil
}

func (w *WebClient) SetAchievementState(_ context.Context, app repository.AppID, key string, _ bool) error {
	return fmt.Errorf("set achievement %s/%s over the web api: %w", app, key, errdefs.ErrNotImplemented)
}

func (w *WebClient) AppIconURL(_ context.Context, app repository.AppID) (string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if u, ok := w.icons[app]; ok {
		return u, nil
	}
	return defaultAppIconURL(app), nil
}

// AchievementIconURL only knows icons of schemas fetched through AppSchema.
func (w *WebClient) AchievementIconURL(_ context.Context, app repository.AppID, key string, unlocked bool) (string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, a := range w.schemas[app] {
		if a.Key != key {
			continue
		}
		if !unlocked && a.IconLockedURL != "" {
			return a.IconLockedURL, nil
		}
		if a.IconURL != "" {
			return a.IconURL, nil
		}
		break
	}
	return "", fmt.Errorf("icon of achievement %s/%s: %w", app, key, errdefs.ErrNotFound)
}

func (w *WebClient) playerAchievements(ctx context.Context, app repository.AppID) (map[string]bool, error) {
	var resp playerAchievementsResponse
	err := w.getJSON(ctx, "/ISteamUserStats/GetPlayerAchievements/v1/", url.Values{
		"steamid": {w.steamID},
		"appid":   {app.String()},
	}, &resp)
	if err != nil {
		// games without stats answer 400 with success=false
		if errdefs.IsInvalidArgument(err) {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	out := make(map[string]bool, len(resp.PlayerStats.Achievements))
	for _, a := range resp.PlayerStats.Achievements {
		out[a.APIName] = a.Achieved != 0
	}
	return out, nil
}

func (w *WebClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", w.apiKey)
	params.Set("format", "json")
	endpoint := w.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %v: %w", path, err, errdefs.ErrInvalidArgument)
	}
	resp, err := w.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("get %s: %v: %w", path, err, errdefs.ErrUnavailable)
	}
	defer resp.Body.Close()

	if err := classifyStatus(path, resp.StatusCode); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %v: %w", path, err, errdefs.ErrDataLoss)
	}
	return nil
}

func classifyStatus(path string, code int) error {
	status := strconv.Itoa(code) + " " + http.StatusText(code)
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized:
		return fmt.Errorf("get %s: %s: %w", path, status, errdefs.ErrUnauthenticated)
	case code == http.StatusForbidden:
		return fmt.Errorf("get %s: %s: %w", path, status, errdefs.ErrPermissionDenied)
	case code == http.StatusNotFound:
		return fmt.Errorf("get %s: %s: %w", path, status, errdefs.ErrNotFound)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("get %s: %s: %w", path, status, errdefs.ErrResourceExhausted)
	case code >= 500:
		return fmt.Errorf("get %s: %s: %w", path, status, errdefs.ErrUnavailable)
	default:
		return fmt.Errorf("get %s: %s: %w", path, status, errdefs.ErrInvalidArgument)
	}
}
