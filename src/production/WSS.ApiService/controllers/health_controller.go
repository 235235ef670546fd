package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	api_models "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models/api"
)

// HealthReporter produces the health document and whether it is healthy
type HealthReporter interface {
	GetHealthStatus(ctx context.Context) (api_models.HealthResponse, bool)
}

// HealthController handles health requests
type HealthController struct {
	checker HealthReporter
}

// NewHealthController creates a new health controller
func NewHealthController(checker HealthReporter) *HealthController {
	return &HealthController{checker: checker}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", c.Health)
}

func (c *HealthController) Health(ctx *gin.Context) {
	status, healthy := c.checker.GetHealthStatus(ctx.Request.Context())
	if !healthy {
		ctx.JSON(http.StatusServiceUnavailable, status)
		return
	}
	ctx.JSON(http.StatusOK, status)
}
