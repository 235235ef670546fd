package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	wssmodels "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models"
	"go.mongodb.org/mongo-driver/bson"
)

func ptr[T any](v T) *T { return &v }

func TestBuildEmptyParams(t *testing.T) {
	f := Build(wssmodels.ReadingQuery{})

	assert.Empty(t, f.Filter)
	assert.NotNil(t, f.Filter, "an empty filter must still encode as {}")
	assert.Equal(t, bson.D{{Key: "server_timestamp", Value: -1}}, f.Sort)
	assert.Equal(t, int64(DefaultLimit), f.Limit)
}

func TestBuildWallAndInclusiveRange(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	f := Build(wssmodels.ReadingQuery{
		WallID:    ptr("north"),
		StartTime: &start,
		EndTime:   &end,
		Limit:     ptr(10),
	})

	assert.Equal(t, bson.D{
		{Key: "wall_id", Value: "north"},
		{Key: "server_timestamp", Value: bson.D{
			{Key: "$gte", Value: start},
			{Key: "$lte", Value: end},
		}},
	}, f.Filter)
	assert.Equal(t, int64(10), f.Limit)
}

func TestBuildSingleBound(t *testing.T) {
	end := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	f := Build(wssmodels.ReadingQuery{EndTime: &end})

	assert.Equal(t, bson.D{
		{Key: "server_timestamp", Value: bson.D{{Key: "$lte", Value: end}}},
	}, f.Filter)
}

func TestBuildInvertedRangePassesThrough(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	f := Build(wssmodels.ReadingQuery{StartTime: &start, EndTime: &end})

	window, ok := f.Filter[0].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, start, window[0].Value)
	assert.Equal(t, end, window[1].Value)
}

func TestBuildClampsLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    *int
		expected int64
	}{
		{"absent", nil, 100},
		{"zero", ptr(0), 1},
		{"negative", ptr(-20), 1},
		{"minimum", ptr(1), 1},
		{"maximum", ptr(1000), 1000},
		{"above maximum", ptr(5000), 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Build(wssmodels.ReadingQuery{Limit: tt.limit}).Limit)
		})
	}
}

func TestFindOptions(t *testing.T) {
	opts := Build(wssmodels.ReadingQuery{Limit: ptr(7)}).FindOptions()

	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(7), *opts.Limit)
	assert.Equal(t, bson.D{{Key: "server_timestamp", Value: -1}}, opts.Sort)
}
