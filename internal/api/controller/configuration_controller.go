package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_sam/internal/config"
)

// ConfigurationResponse is the non-secret part of the configuration.
type ConfigurationResponse struct {
	CatalogURL        string `json:"catalogUrl"`
	CatalogStaleSec   int    `json:"catalogStalenessSec"`
	CatalogPollSec    int    `json:"catalogPollSec"`
	MaxOutstanding    int    `json:"maxOutstanding"`
	ClientType        string `json:"clientType"`
	PersistEverySec   int    `json:"persistIntervalSec,omitempty"`
	RequestTimeoutSec int    `json:"requestTimeoutSec"`
}

// ConfigurationController handles configuration-related API endpoints.
type ConfigurationController struct {
	config *config.Config
}

// NewConfigurationController creates a new ConfigurationController.
func NewConfigurationController(cfg *config.Config) *ConfigurationController {
	return &ConfigurationController{
		config: cfg,
	}
}

// GetConfiguration handles GET /configuration. API keys are never exposed.
func (cc *ConfigurationController) GetConfiguration(c *gin.Context) {
	cfg := cc.config
	response := ConfigurationResponse{
		CatalogURL:        cfg.Catalog.URL,
		CatalogStaleSec:   int(cfg.Catalog.Staleness.Seconds()),
		CatalogPollSec:    int(cfg.Catalog.Poll.Seconds()),
		MaxOutstanding:    cfg.Icons.MaxOutstanding,
		ClientType:        cfg.Client.Type,
		RequestTimeoutSec: int(cfg.Server.RequestTimeout.Seconds()),
	}
	if cfg.Client.Type != config.ClientTypeWebAPI {
		response.PersistEverySec = int(cfg.Client.PersistInterval.Seconds())
	}
	c.JSON(http.StatusOK, response)
}
