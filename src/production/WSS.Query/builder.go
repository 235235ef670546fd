package query

import (
	wssmodels "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultLimit = 100
	MinLimit     = 1
	MaxLimit     = 1000
)

// ReadingFilter is a ready-to-run find over the readings collection.
type ReadingFilter struct {
	Filter bson.D
	Sort   bson.D
	Limit  int64
}

// Build translates validated query parameters into a filter, a fixed
// newest-first sort and a bounded limit. Both time bounds are inclusive and
// an inverted range is passed through unchanged.
func Build(params wssmodels.ReadingQuery) ReadingFilter {
	filter := bson.D{}

	if params.WallID != nil {
		filter = append(filter, bson.E{Key: "wall_id", Value: *params.WallID})
	}

	if params.StartTime != nil || params.EndTime != nil {
		window := bson.D{}
		if params.StartTime != nil {
			window = append(window, bson.E{Key: "$gte", Value: *params.StartTime})
		}
		if params.EndTime != nil {
			window = append(window, bson.E{Key: "$lte", Value: *params.EndTime})
		}
		filter = append(filter, bson.E{Key: "server_timestamp", Value: window})
	}

	return ReadingFilter{
		Filter: filter,
		Sort:   bson.D{{Key: "server_timestamp", Value: -1}},
		Limit:  int64(clampLimit(params.Limit)),
	}
}

// FindOptions returns the driver options carrying the sort and limit.
func (f ReadingFilter) FindOptions() *options.FindOptions {
	return options.Find().SetSort(f.Sort).SetLimit(f.Limit)
}

func clampLimit(limit *int) int {
	if limit == nil {
		return DefaultLimit
	}
	switch {
	case *limit < MinLimit:
		return MinLimit
	case *limit > MaxLimit:
		return MaxLimit
	}
	return *limit
}
