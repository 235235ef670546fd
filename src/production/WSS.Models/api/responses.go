package api_models

import (
	wssmodels "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models"
)

// ErrorDetail is one field-level validation failure
type ErrorDetail struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationErrorResponse is the 400 body
type ValidationErrorResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error"`
	Details []ErrorDetail `json:"details"`
}

// ErrorResponse is the 5xx body
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// CreateReadingResponse is returned after a successful ingestion
type CreateReadingResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ReadingListResponse wraps query results
type ReadingListResponse struct {
	Success bool                      `json:"success"`
	Count   int                       `json:"count"`
	Data    []wssmodels.SensorReading `json:"data"`
}

// WallListResponse wraps the walls summary
type WallListResponse struct {
	Success bool                    `json:"success"`
	Count   int                     `json:"count"`
	Walls   []wssmodels.WallSummary `json:"walls"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Database  string  `json:"database"`
	Uptime    float64 `json:"uptime"`
	Error     string  `json:"error,omitempty"`
}
