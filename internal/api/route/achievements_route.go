package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_sam/internal/api/controller"
	"github.com/bassista/go_sam/internal/api/middleware"
	"github.com/bassista/go_sam/internal/app"
)

// NewAchievementsRouter sets up the achievements page routes. Commit talks to
// the game client and gets a longer deadline than the other routes.
func NewAchievementsRouter(timeout time.Duration, group *gin.RouterGroup, appCtx *app.App) {
	ac := controller.NewAchievementsController(appCtx)
	ach := group.Group("achievements")
	short := middleware.RequestTimeout(timeout)

	ach.GET("", short, ac.Current)
	ach.DELETE("", short, ac.Close)
	ach.POST("unlock", short, ac.UnlockAll)
	ach.POST("lock", short, ac.LockAll)
	ach.POST("invert", short, ac.InvertAll)
	ach.POST("commit", middleware.RequestTimeout(4*timeout), ac.Commit)
	ach.POST(":key", short, ac.Set)
}
