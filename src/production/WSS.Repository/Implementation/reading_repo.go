package implementation

import (
	"context"
	"fmt"
	"time"

	wssmodels "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models"
	query "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionSource hands out the readings collection once storage is
// connected.
type CollectionSource interface {
	Readings() (*mongo.Collection, error)
}

type MongoReadingRepository struct {
	source  CollectionSource
	timeout time.Duration
}

func NewMongoReadingRepository(source CollectionSource, timeout time.Duration) *MongoReadingRepository {
	return &MongoReadingRepository{source: source, timeout: timeout}
}

func (r *MongoReadingRepository) InsertReading(ctx context.Context, reading *wssmodels.SensorReading) error {
	coll, err := r.source.Readings()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err = coll.InsertOne(ctx, reading)
	return err
}

func (r *MongoReadingRepository) FindReadings(ctx context.Context, filter query.ReadingFilter) ([]wssmodels.SensorReading, error) {
	coll, err := r.source.Readings()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := coll.Find(ctx, filter.Filter, filter.FindOptions())
	if err != nil {
		return nil, err
	}

	readings := make([]wssmodels.SensorReading, 0)
	if err := cursor.All(ctx, &readings); err != nil {
		return nil, fmt.Errorf("failed to decode readings: %w", err)
	}
	return readings, nil
}

// WallSummaryPipeline groups every reading by wall. Documents are fed to the
// group in insertion order so device_count is the value of the
// last-inserted reading of each wall.
func WallSummaryPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$wall_id"},
			{Key: "latest_reading", Value: bson.D{{Key: "$max", Value: "$server_timestamp"}}},
			{Key: "device_count", Value: bson.D{{Key: "$last", Value: "$device_count"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "latest_reading", Value: -1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "wall_id", Value: "$_id"},
			{Key: "latest_reading", Value: 1},
			{Key: "device_count", Value: 1},
		}}},
	}
}

func (r *MongoReadingRepository) WallSummaries(ctx context.Context) ([]wssmodels.WallSummary, error) {
	coll, err := r.source.Readings()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := coll.Aggregate(ctx, WallSummaryPipeline())
	if err != nil {
		return nil, err
	}

	walls := make([]wssmodels.WallSummary, 0)
	if err := cursor.All(ctx, &walls); err != nil {
		return nil, fmt.Errorf("failed to decode wall summaries: %w", err)
	}
	return walls, nil
}
