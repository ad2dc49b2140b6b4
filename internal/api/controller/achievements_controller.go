package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/bassista/go_sam/internal/app"
	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/repository"
	"github.com/bassista/go_sam/internal/view"
)

// AchievementsResponse is the achievements page of the selected game.
type AchievementsResponse struct {
	AppID        repository.AppID `json:"appid,omitempty"`
	Loading      bool             `json:"loading"`
	Placeholder  string           `json:"placeholder"`
	Pending      int              `json:"pending"`
	Achievements []view.Entry     `json:"achievements"`
}

// SetAchievementRequest is the body of POST /achievements/:key.
type SetAchievementRequest struct {
	Unlocked *bool `json:"unlocked" validate:"required"`
}

// AchievementsController exposes the achievements page of the selected game.
type AchievementsController struct {
	app      *app.App
	validate *validator.Validate
}

func NewAchievementsController(a *app.App) *AchievementsController {
	return &AchievementsController{app: a, validate: validator.New()}
}

// Current handles GET /achievements.
func (ac *AchievementsController) Current(c *gin.Context) {
	store := ac.app.Achievements
	id, _ := store.CurrentApp()
	c.JSON(http.StatusOK, AchievementsResponse{
		AppID:        id,
		Loading:      store.Loading(),
		Placeholder:  ac.app.View.Placeholder(view.Achievements).String(),
		Pending:      len(store.Pending()),
		Achievements: ac.app.View.Rows(view.Achievements),
	})
}

// UnlockAll handles POST /achievements/unlock.
func (ac *AchievementsController) UnlockAll(c *gin.Context) {
	ac.bulk(c, "unlock", ac.app.OnUnlockAll)
}

// LockAll handles POST /achievements/lock.
func (ac *AchievementsController) LockAll(c *gin.Context) {
	ac.bulk(c, "lock", ac.app.OnLockAll)
}

// InvertAll handles POST /achievements/invert.
func (ac *AchievementsController) InvertAll(c *gin.Context) {
	ac.bulk(c, "invert", ac.app.OnInvertAll)
}

func (ac *AchievementsController) bulk(c *gin.Context, op string, edit func() int) {
	if _, ok := ac.app.Achievements.CurrentApp(); !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "no game selected"})
		return
	}
	var n int
	if err := ac.app.Dispatcher.Do(c.Request.Context(), func(view.View) { n = edit() }); err != nil {
		uiBusy(c, err)
		return
	}
	logger.WithComponent("achievements-controller").Debugf("%s all: %d rows", op, n)
	c.JSON(http.StatusOK, gin.H{"rows": n})
}

// Set handles POST /achievements/:key with {"unlocked": bool}.
func (ac *AchievementsController) Set(c *gin.Context) {
	key := c.Param("key")
	var req SetAchievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}
	if err := ac.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var setErr error
	if err := ac.app.Dispatcher.Do(c.Request.Context(), func(view.View) {
		setErr = ac.app.OnSetAchievement(key, *req.Unlocked)
	}); err != nil {
		uiBusy(c, err)
		return
	}
	if setErr != nil {
		c.JSON(statusFor(setErr), gin.H{"error": setErr.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "unlocked": *req.Unlocked})
}

// Commit handles POST /achievements/commit. It blocks on the game client,
// so it runs on the request goroutine rather than the UI loop.
func (ac *AchievementsController) Commit(c *gin.Context) {
	n, err := ac.app.OnCommit(c.Request.Context())
	if err != nil {
		logger.WithComponent("achievements-controller").Warnf("commit: %d written: %v", n, err)
		c.JSON(statusFor(err), gin.H{"written": n, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"written": n})
}

// Close handles DELETE /achievements and leaves the achievements page.
func (ac *AchievementsController) Close(c *gin.Context) {
	if err := ac.app.Dispatcher.Do(c.Request.Context(), func(view.View) { ac.app.OnClose() }); err != nil {
		uiBusy(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
