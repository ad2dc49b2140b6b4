package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_sam/internal/app"
)

type HealthController struct {
	app *app.App
}

func NewHealthController(a *app.App) *HealthController {
	return &HealthController{app: a}
}

// Health handles GET /health with a snapshot of the background work.
func (hc *HealthController) Health(c *gin.Context) {
	coord := hc.app.Coordinator
	posted, handled := hc.app.Dispatcher.Stats()
	c.JSON(http.StatusOK, gin.H{
		"message": "UP",
		"tasks": gin.H{
			"cap":         coord.Cap(),
			"outstanding": coord.Outstanding(),
			"peak":        coord.Peak(),
		},
		"ui": gin.H{
			"posted":  posted,
			"handled": handled,
			"queued":  hc.app.Dispatcher.Len(),
		},
		"catalog": gin.H{
			"lastUpdate": hc.app.Catalog.LastUpdate(),
			"downloads":  hc.app.Catalog.Downloads(),
			"refreshing": hc.app.Catalog.Refreshing(),
			"owned":      len(hc.app.Catalog.OwnedApps()),
		},
	})
}
