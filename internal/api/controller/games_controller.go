package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_sam/internal/app"
	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/repository"
	"github.com/bassista/go_sam/internal/view"
)

// GamesResponse is the games list as the view currently shows it.
type GamesResponse struct {
	Refreshing  bool         `json:"refreshing"`
	Placeholder string       `json:"placeholder"`
	Filter      string       `json:"filter"`
	Games       []view.Entry `json:"games"`
}

// GameResponse describes one app.
type GameResponse struct {
	AppID     repository.AppID `json:"appid"`
	Title     string           `json:"title"`
	Owned     bool             `json:"owned"`
	IconState string           `json:"iconState"`
	IconPath  string           `json:"iconPath,omitempty"`
}

// GamesController exposes the app catalog and the games list.
type GamesController struct {
	app *app.App
}

func NewGamesController(a *app.App) *GamesController {
	return &GamesController{app: a}
}

// AllGames handles GET /games.
func (gc *GamesController) AllGames(c *gin.Context) {
	mv := gc.app.View
	c.JSON(http.StatusOK, GamesResponse{
		Refreshing:  gc.app.Catalog.Refreshing(),
		Placeholder: mv.Placeholder(view.Games).String(),
		Filter:      mv.FilterText(view.Games),
		Games:       mv.Rows(view.Games),
	})
}

// Game handles GET /games/:id.
func (gc *GamesController) Game(c *gin.Context) {
	id, ok := appIDParam(c)
	if !ok {
		return
	}
	cat := gc.app.Catalog
	owned := cat.AppIsOwned(id)
	title := cat.AppName(id)
	if !owned && title == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown app"})
		return
	}
	if title == "" {
		title = id.String()
	}
	c.JSON(http.StatusOK, GameResponse{
		AppID:     id,
		Title:     title,
		Owned:     owned,
		IconState: cat.IconState(id).String(),
		IconPath:  cat.IconPath(id),
	})
}

// Icon handles GET /games/:id/icon and serves the cached image.
func (gc *GamesController) Icon(c *gin.Context) {
	id, ok := appIDParam(c)
	if !ok {
		return
	}
	path := gc.app.Catalog.IconPath(id)
	if path == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "icon not cached"})
		return
	}
	c.File(path)
}

// Refresh handles POST /games/refresh. 409 means a refresh is already running.
func (gc *GamesController) Refresh(c *gin.Context) {
	var started bool
	if err := gc.app.Dispatcher.Do(c.Request.Context(), func(view.View) {
		started = gc.app.OnRefreshRequested()
	}); err != nil {
		uiBusy(c, err)
		return
	}
	if !started {
		c.JSON(http.StatusConflict, gin.H{"error": "refresh already running"})
		return
	}
	logger.WithComponent("games-controller").Debug("games refresh started")
	c.JSON(http.StatusAccepted, gin.H{"status": "refreshing"})
}

// Select handles POST /games/:id/select and opens the achievements of the app.
// Any AppID is accepted, owned or not. 409 means a schema is still loading.
func (gc *GamesController) Select(c *gin.Context) {
	id, ok := appIDParam(c)
	if !ok {
		return
	}
	var started bool
	if err := gc.app.Dispatcher.Do(c.Request.Context(), func(view.View) {
		started = gc.app.OnGameSelected(id)
	}); err != nil {
		uiBusy(c, err)
		return
	}
	if !started {
		c.JSON(http.StatusConflict, gin.H{"error": "another game is still loading"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "loading", "appid": id})
}

func appIDParam(c *gin.Context) (repository.AppID, bool) {
	id, err := repository.ParseAppID(c.Param("id"))
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid app id"})
		return 0, false
	}
	return id, true
}

// uiBusy answers when the UI loop did not run a message before the request
// deadline. The message is skipped, so nothing the request asked for starts.
func uiBusy(c *gin.Context, err error) {
	logger.WithComponent("api").Warnf("%s %s: ui loop did not respond: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ui loop busy"})
}
