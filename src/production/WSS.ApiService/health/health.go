package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	database "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Database"
	logger "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Logger"
	api_models "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models/api"
)

// Pinger is anything that can confirm the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker provides health check functionality
type HealthChecker struct {
	db        Pinger
	timeout   time.Duration
	logger    *logger.Logger
	startedAt time.Time
	now       func() time.Time
}

// NewHealthChecker creates a new health checker. Uptime is measured from
// the moment it is created.
func NewHealthChecker(db Pinger, timeout time.Duration, log *logger.Logger) *HealthChecker {
	return &HealthChecker{
		db:        db,
		timeout:   timeout,
		logger:    log.WithComponent("health"),
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// PingMongo checks if the MongoDB primary is reachable
func (h *HealthChecker) PingMongo(ctx context.Context) error {
	if h.db == nil {
		return database.ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// GetHealthStatus returns the current health status and whether the
// service is healthy.
func (h *HealthChecker) GetHealthStatus(ctx context.Context) (api_models.HealthResponse, bool) {
	now := h.now()
	status := api_models.HealthResponse{
		Status:    "healthy",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Database:  "connected",
		Uptime:    now.Sub(h.startedAt).Seconds(),
	}

	if err := h.PingMongo(ctx); err != nil {
		status.Status = "unhealthy"
		status.Database = "disconnected"
		status.Error = publicPingError(err)
		h.logger.Logger.Error().Err(err).Msg("Health check ping failed")
		return status, false
	}

	return status, true
}

// publicPingError maps a ping failure to the message shown to callers.
// Driver text stays in the logs.
func publicPingError(err error) string {
	if errors.Is(err, database.ErrNotInitialized) {
		return "Database not initialized"
	}
	return "Database ping failed"
}
