package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_sam/internal/api/controller"
	"github.com/bassista/go_sam/internal/api/middleware"
	"github.com/bassista/go_sam/internal/app"
)

func NewGamesRouter(timeout time.Duration, group *gin.RouterGroup, appCtx *app.App) {
	games := group.Group("games", middleware.RequestTimeout(timeout))
	gc := controller.NewGamesController(appCtx)

	games.GET("", gc.AllGames)
	games.POST("refresh", gc.Refresh)
	games.GET(":id", gc.Game)
	games.GET(":id/icon", gc.Icon)
	games.POST(":id/select", gc.Select)
}
