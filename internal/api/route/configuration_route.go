package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_sam/internal/api/controller"
	"github.com/bassista/go_sam/internal/api/middleware"
	"github.com/bassista/go_sam/internal/app"
)

// NewConfigurationRouter sets up configuration and view-filter routes.
func NewConfigurationRouter(timeout time.Duration, group *gin.RouterGroup, appCtx *app.App) {
	cc := controller.NewConfigurationController(appCtx.Config)
	fc := controller.NewFilterController(appCtx)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("configuration", timeoutMiddleware, cc.GetConfiguration)
	group.GET("filter", timeoutMiddleware, fc.Filter)
}
