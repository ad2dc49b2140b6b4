package route

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bassista/go_sam/internal/api/controller"
	"github.com/bassista/go_sam/internal/api/middleware"
	"github.com/bassista/go_sam/internal/app"
)

// SetupRoutes builds the engine serving the control API of appCtx.
func SetupRoutes(appCtx *app.App, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(appCtx.Config.Server.CORSAllowedOrigins))

	hc := controller.NewHealthController(appCtx)
	r.GET("/health", hc.Health)

	publicRouter := r.Group("")
	timeout := appCtx.Config.Server.RequestTimeout

	NewConfigurationRouter(timeout, publicRouter, appCtx)
	NewGamesRouter(timeout, publicRouter, appCtx)
	NewAchievementsRouter(timeout, publicRouter, appCtx)

	return r
}
