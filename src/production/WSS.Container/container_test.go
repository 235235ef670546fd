package container

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Config"
	database "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Database"
	logger "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Logger"
	wssmodels "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "3000", MaxBodyBytes: 1024},
		Database: config.DatabaseConfig{
			URI:                    "mongodb://localhost:27017",
			Name:                   "climbing_walls",
			ReadingsCollection:     "sensor_readings",
			ConnectTimeout:         time.Second,
			ServerSelectionTimeout: time.Second,
			OperationTimeout:       time.Second,
		},
	}
}

func TestContainerBeforeDatabaseInitialization(t *testing.T) {
	ctr := NewContainer(testConfig(), logger.NewNop())

	assert.False(t, ctr.GetDatabase().IsConnected())
	assert.Same(t, ctr.GetSensorDataService(), ctr.GetSensorDataService())
	assert.Same(t, ctr.GetHealthChecker(), ctr.GetHealthChecker())

	_, err := ctr.GetSensorDataService().Ingest(context.Background(), wssmodels.SensorReading{WallID: "north", Timestamp: 1})
	assert.ErrorIs(t, err, database.ErrNotInitialized)

	status, healthy := ctr.GetHealthChecker().GetHealthStatus(context.Background())
	assert.False(t, healthy)
	assert.Equal(t, "disconnected", status.Database)
}

func TestShutdownRunsCleanupInReverse(t *testing.T) {
	ctr := NewContainer(testConfig(), logger.NewNop())

	var order []int
	ctr.AddCleanupFunc(func(context.Context) error { order = append(order, 1); return nil })
	ctr.AddCleanupFunc(func(context.Context) error { order = append(order, 2); return nil })
	ctr.AddCleanupFunc(func(context.Context) error { order = append(order, 3); return nil })

	require.NoError(t, ctr.Shutdown(context.Background()))
	assert.Equal(t, []int{3, 2, 1}, order)

	require.NoError(t, ctr.Shutdown(context.Background()))
	assert.Len(t, order, 3, "cleanup runs once")
}

type ctxKey struct{}

func TestShutdownPassesContextAndReturnsFirstError(t *testing.T) {
	ctr := NewContainer(testConfig(), logger.NewNop())
	ctx := context.WithValue(context.Background(), ctxKey{}, "shutdown")

	var seen []interface{}
	ctr.AddCleanupFunc(func(ctx context.Context) error {
		seen = append(seen, ctx.Value(ctxKey{}))
		return errors.New("disconnect failed")
	})
	ctr.AddCleanupFunc(func(ctx context.Context) error {
		seen = append(seen, ctx.Value(ctxKey{}))
		return errors.New("flush failed")
	})

	err := ctr.Shutdown(ctx)
	assert.EqualError(t, err, "flush failed")
	assert.Equal(t, []interface{}{"shutdown", "shutdown"}, seen, "every cleanup runs with the caller's context")
}

func TestServeStopsOnContextCancel(t *testing.T) {
	srv := NewHTTPServer(config.ServerConfig{Port: "0"}, http.NotFoundHandler())
	srv.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, time.Second, logger.NewNop()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeReturnsListenError(t *testing.T) {
	srv := NewHTTPServer(config.ServerConfig{Port: "-1"}, http.NotFoundHandler())

	err := Serve(context.Background(), srv, time.Second, logger.NewNop())
	assert.Error(t, err)
}

func TestNewHTTPServerCopiesTimeouts(t *testing.T) {
	srv := NewHTTPServer(config.ServerConfig{
		Port:         "8080",
		ReadTimeout:  time.Second,
		WriteTimeout: 2 * time.Second,
		IdleTimeout:  3 * time.Second,
	}, http.NotFoundHandler())

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, time.Second, srv.ReadTimeout)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	assert.Equal(t, 3*time.Second, srv.IdleTimeout)
}
