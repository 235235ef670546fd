package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Config"
	logger "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

func testConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		URI:                    "mongodb://localhost:27017",
		Name:                   "climbing_walls",
		ReadingsCollection:     "sensor_readings",
		ConnectTimeout:         time.Second,
		ServerSelectionTimeout: time.Second,
		OperationTimeout:       time.Second,
		MaxPoolSize:            5,
	}
}

func TestGatewayNotInitialized(t *testing.T) {
	g := NewGateway(testConfig(), logger.NewNop())

	assert.False(t, g.IsConnected())

	_, err := g.Readings()
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.ErrorIs(t, g.Ping(context.Background()), ErrNotInitialized)
	assert.ErrorIs(t, g.EnsureIndexes(context.Background()), ErrNotInitialized)
	assert.NoError(t, g.Close(context.Background()))
}

func TestGatewayWithMockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("readings collection uses configured names", func(mt *mtest.T) {
		g := NewGateway(testConfig(), logger.NewNop())
		g.Attach(mt.Client)

		require.True(t, g.IsConnected())
		coll, err := g.Readings()
		require.NoError(t, err)
		assert.Equal(t, "sensor_readings", coll.Name())
		assert.Equal(t, "climbing_walls", coll.Database().Name())
	})

	mt.Run("ping", func(mt *mtest.T) {
		g := NewGateway(testConfig(), logger.NewNop())
		g.Attach(mt.Client)

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(t, g.Ping(context.Background()))
		assert.Equal(t, "ping", mt.GetStartedEvent().CommandName)
	})

	mt.Run("ping failure", func(mt *mtest.T) {
		g := NewGateway(testConfig(), logger.NewNop())
		g.Attach(mt.Client)

		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Message: "not authorized",
			Name:    "Unauthorized",
		}))
		assert.Error(t, g.Ping(context.Background()))
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		g := NewGateway(testConfig(), logger.NewNop())
		g.Attach(mt.Client)

		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(t, g.EnsureIndexes(context.Background()))

		started := mt.GetStartedEvent()
		require.NotNil(t, started)
		assert.Equal(t, "createIndexes", started.CommandName)
		assert.Equal(t, "sensor_readings", started.Command.Lookup("createIndexes").StringValue())

		indexes, err := started.Command.Lookup("indexes").Array().Values()
		require.NoError(t, err)
		require.Len(t, indexes, 2)

		var first struct {
			Key  bson.D `bson:"key"`
			Name string `bson:"name"`
		}
		require.NoError(t, indexes[0].Unmarshal(&first))
		assert.Equal(t, "wall_id_server_timestamp", first.Name)
		assert.Equal(t, "wall_id", first.Key[0].Key)
		assert.Equal(t, "server_timestamp", first.Key[1].Key)
	})
}

func TestReadingIndexes(t *testing.T) {
	indexes := ReadingIndexes()
	require.Len(t, indexes, 2)

	assert.Equal(t, bson.D{{Key: "wall_id", Value: 1}, {Key: "server_timestamp", Value: -1}}, indexes[0].Keys)
	assert.Equal(t, bson.D{{Key: "server_timestamp", Value: -1}}, indexes[1].Keys)
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"not initialized", ErrNotInitialized, true},
		{"wrapped not initialized", fmt.Errorf("insert: %w", ErrNotInitialized), true},
		{"client disconnected", mongo.ErrClientDisconnected, true},
		{"server selection", topology.ServerSelectionError{Wrapped: errors.New("no reachable servers")}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"command error", mongo.CommandError{Code: 2, Message: "bad value"}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUnavailable(tt.err))
		})
	}
}
