package interfaces

import (
	"context"

	wssmodels "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models"
	query "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Query"
)

type ReadingRepository interface {
	// Write operations
	InsertReading(ctx context.Context, reading *wssmodels.SensorReading) error

	// Query operations
	FindReadings(ctx context.Context, filter query.ReadingFilter) ([]wssmodels.SensorReading, error)
	WallSummaries(ctx context.Context) ([]wssmodels.WallSummary, error)
}
