package wssingestor

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.IngestorService/client"
)

// ConnectionState reports broker connectivity
type ConnectionState interface {
	IsConnected() bool
}

// APIStatus reports API service reachability and breaker state
type APIStatus interface {
	Health(ctx context.Context) error
	GetCircuitBreakerStatus() client.CircuitBreakerStatus
}

// NewHealthRouter serves GET /health for the bridge
func NewHealthRouter(mqttState ConnectionState, api APIStatus) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
		defer cancel()

		mqttStatus := "disconnected"
		if mqttState.IsConnected() {
			mqttStatus = "connected"
		}

		apiStatus := "disconnected"
		if err := api.Health(checkCtx); err == nil {
			apiStatus = "connected"
		}

		status, code := "healthy", http.StatusOK
		if mqttStatus != "connected" || apiStatus != "connected" {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		ctx.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services": gin.H{
				"mqtt":        mqttStatus,
				"api_service": apiStatus,
			},
			"circuit_breaker": api.GetCircuitBreakerStatus(),
		})
	})

	return router
}
