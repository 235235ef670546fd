package service

import (
	"context"
	"time"

	logger "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Logger"
	wssmodels "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models"
	query "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Query"
	interfaces "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Repository/Interfaces"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SensorDataService implements ingestion, reading queries and the per-wall
// summary on top of a reading repository.
type SensorDataService struct {
	repo       interfaces.ReadingRepository
	collection string
	logger     *logger.Logger
	now        func() time.Time
}

// Option customizes a SensorDataService.
type Option func(*SensorDataService)

// WithClock replaces the wall clock used to stamp readings.
func WithClock(now func() time.Time) Option {
	return func(s *SensorDataService) {
		s.now = now
	}
}

// NewSensorDataService creates the service. collection is only used to
// label errors and log lines.
func NewSensorDataService(repo interfaces.ReadingRepository, collection string, log *logger.Logger, opts ...Option) *SensorDataService {
	s := &SensorDataService{
		repo:       repo,
		collection: collection,
		logger:     log.WithComponent("sensor_service"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest stores a validated reading. server_timestamp and created_at are set
// to the same instant, at millisecond precision, and a fresh id is assigned.
// Any system fields already on reading are overwritten.
func (s *SensorDataService) Ingest(ctx context.Context, reading wssmodels.SensorReading) (wssmodels.SensorReading, error) {
	stamp := s.now().UTC().Truncate(time.Millisecond)

	reading.ID = primitive.NewObjectID()
	reading.ServerTimestamp = stamp
	reading.CreatedAt = stamp

	if err := s.repo.InsertReading(ctx, &reading); err != nil {
		storageErr := newStorageError("insert reading", s.collection, reading.WallID, err)
		s.logStorageError(storageErr)
		return wssmodels.SensorReading{}, storageErr
	}

	s.logger.WithFields(map[string]interface{}{
		"wall_id":      reading.WallID,
		"device_count": reading.DeviceCount,
		"id":           reading.ID.Hex(),
	}).Debug("Sensor reading stored")

	return reading, nil
}

// Query returns readings matching params, newest first, bounded by the
// effective limit.
func (s *SensorDataService) Query(ctx context.Context, params wssmodels.ReadingQuery) ([]wssmodels.SensorReading, error) {
	readings, err := s.repo.FindReadings(ctx, query.Build(params))
	if err != nil {
		wallID := ""
		if params.WallID != nil {
			wallID = *params.WallID
		}
		storageErr := newStorageError("find readings", s.collection, wallID, err)
		s.logStorageError(storageErr)
		return nil, storageErr
	}
	return readings, nil
}

// Walls returns one summary per distinct wall, most recently active first.
func (s *SensorDataService) Walls(ctx context.Context) ([]wssmodels.WallSummary, error) {
	walls, err := s.repo.WallSummaries(ctx)
	if err != nil {
		storageErr := newStorageError("aggregate wall summaries", s.collection, "", err)
		s.logStorageError(storageErr)
		return nil, storageErr
	}
	return walls, nil
}

func (s *SensorDataService) logStorageError(err *StorageError) {
	fields := map[string]interface{}{
		"operation":   err.Op,
		"collection":  err.Collection,
		"unavailable": err.Unavailable,
	}
	if err.WallID != "" {
		fields["wall_id"] = err.WallID
	}
	s.logger.WithFields(fields).ErrorWithError(err.Err, "Storage operation failed")
}
