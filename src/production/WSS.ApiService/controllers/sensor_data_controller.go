package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.ApiService/middleware"
	logger "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Logger"
	wssmodels "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models"
	api_models "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models/api"
	service "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Service"
	validation "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Validation"
)

// SensorDataService is the domain surface the controller drives
type SensorDataService interface {
	Ingest(ctx context.Context, reading wssmodels.SensorReading) (wssmodels.SensorReading, error)
	Query(ctx context.Context, params wssmodels.ReadingQuery) ([]wssmodels.SensorReading, error)
	Walls(ctx context.Context) ([]wssmodels.WallSummary, error)
}

// SensorDataController handles ingestion and query requests
type SensorDataController struct {
	service SensorDataService
	logger  *logger.Logger
}

// NewSensorDataController creates a new sensor data controller
func NewSensorDataController(service SensorDataService, logger *logger.Logger) *SensorDataController {
	return &SensorDataController{
		service: service,
		logger:  logger.WithComponent("sensor_data_controller"),
	}
}

// RegisterRoutes registers the sensor data routes with Gin
func (c *SensorDataController) RegisterRoutes(router *gin.Engine) {
	sensorData := router.Group("/sensor-data")
	{
		sensorData.POST("", c.CreateReading)
		sensorData.GET("", c.GetReadings)
		sensorData.GET("/walls", c.GetWalls)
	}
}

func (c *SensorDataController) CreateReading(ctx *gin.Context) {
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ctx.JSON(http.StatusRequestEntityTooLarge, api_models.ErrorResponse{
				Success: false,
				Error:   "Request body too large",
			})
			return
		}
		ctx.JSON(http.StatusBadRequest, api_models.ErrorResponse{
			Success: false,
			Error:   "Failed to read request body",
		})
		return
	}

	raw, err := validation.DecodeObject(body)
	if err != nil {
		c.respondValidation(ctx, err)
		return
	}

	reading, err := validation.ParseReading(raw)
	if err != nil {
		c.respondValidation(ctx, err)
		return
	}

	stored, err := c.service.Ingest(ctx.Request.Context(), reading)
	if err != nil {
		c.respondStorage(ctx, err, "Failed to save sensor data")
		return
	}

	ctx.JSON(http.StatusCreated, api_models.CreateReadingResponse{
		Success: true,
		ID:      stored.ID.Hex(),
		Message: "Sensor data saved successfully",
	})
}

func (c *SensorDataController) GetReadings(ctx *gin.Context) {
	params, err := validation.ParseReadingQuery(ctx.Request.URL.Query())
	if err != nil {
		c.respondValidation(ctx, err)
		return
	}

	readings, err := c.service.Query(ctx.Request.Context(), params)
	if err != nil {
		c.respondStorage(ctx, err, "Failed to fetch sensor data")
		return
	}
	if readings == nil {
		readings = []wssmodels.SensorReading{}
	}

	ctx.JSON(http.StatusOK, api_models.ReadingListResponse{
		Success: true,
		Count:   len(readings),
		Data:    readings,
	})
}

func (c *SensorDataController) GetWalls(ctx *gin.Context) {
	walls, err := c.service.Walls(ctx.Request.Context())
	if err != nil {
		c.respondStorage(ctx, err, "Failed to fetch walls data")
		return
	}
	if walls == nil {
		walls = []wssmodels.WallSummary{}
	}

	ctx.JSON(http.StatusOK, api_models.WallListResponse{
		Success: true,
		Count:   len(walls),
		Walls:   walls,
	})
}

func (c *SensorDataController) respondValidation(ctx *gin.Context, err error) {
	violations, ok := validation.AsViolations(err)
	if !ok {
		ctx.JSON(http.StatusBadRequest, api_models.ErrorResponse{Success: false, Error: "Validation failed"})
		return
	}

	details := make([]api_models.ErrorDetail, 0, len(violations))
	for _, v := range violations {
		details = append(details, api_models.ErrorDetail{Path: v.Path, Message: v.Message})
	}

	c.logger.WithFields(map[string]interface{}{
		"request_id": middleware.GetRequestIDFromGinContext(ctx),
		"path":       ctx.Request.URL.Path,
		"violations": len(details),
	}).Warn("Validation failed")

	ctx.JSON(http.StatusBadRequest, api_models.ValidationErrorResponse{
		Success: false,
		Error:   "Validation failed",
		Details: details,
	})
}

func (c *SensorDataController) respondStorage(ctx *gin.Context, err error, message string) {
	if service.IsNotInitialized(err) {
		message = "Database not initialized"
	}

	c.logger.WithRequestID(middleware.GetRequestIDFromGinContext(ctx)).ErrorWithError(err, message)

	ctx.JSON(http.StatusInternalServerError, api_models.ErrorResponse{
		Success: false,
		Error:   message,
	})
}
