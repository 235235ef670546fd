package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Config"
)

func TestJSONLoggerCarriesFields(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	log := NewLoggerWithWriter(&config.LoggingConfig{Level: "debug", Format: "json"}, &buf)

	log.WithComponent("repository").WithField("wall_id", "north").Info("inserted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "repository", entry["component"])
	assert.Equal(t, "north", entry["wall_id"])
	assert.Equal(t, "inserted", entry["message"])
}

func TestLevelFiltering(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	log := NewLoggerWithWriter(&config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	log := NewLoggerWithWriter(&config.LoggingConfig{Level: "loud", Format: "json"}, &buf)

	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithFieldsAndRequestID(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	log := NewLoggerWithWriter(&config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	log.WithRequestID("req-1").WithFields(map[string]interface{}{"status": 201, "path": "/sensor-data"}).Info("request")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, float64(201), entry["status"])
	assert.Equal(t, "/sensor-data", entry["path"])
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNop().WithComponent("x").Error("dropped")
	})
}
