package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.ApiService/controllers"
	"gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.ApiService/middleware"
	config "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Config"
	logger "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Logger"
	api_models "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models/api"
)

// NewRouter builds the gin engine with the middleware chain and every route
// of the API service.
func NewRouter(cfg *config.Config, log *logger.Logger, sensorData controllers.SensorDataService, health controllers.HealthReporter) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(gin.CustomRecovery(recoveryHandler(log)))
	router.Use(middleware.SecurityHeaders())

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	controllers.NewSensorDataController(sensorData, log).RegisterRoutes(router)
	controllers.NewHealthController(health).RegisterRoutes(router)

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return router
}

func recoveryHandler(log *logger.Logger) gin.RecoveryFunc {
	return func(ctx *gin.Context, recovered any) {
		log.WithFields(map[string]interface{}{
			"request_id": middleware.GetRequestIDFromGinContext(ctx),
			"path":       ctx.Request.URL.Path,
			"panic":      recovered,
		}).Error("Recovered from panic")

		ctx.AbortWithStatusJSON(http.StatusInternalServerError, api_models.ErrorResponse{
			Success: false,
			Error:   "Internal server error",
		})
	}
}
