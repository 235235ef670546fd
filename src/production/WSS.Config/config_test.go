package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadApiConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := LoadApiConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.URI)
	assert.Equal(t, "climbing_walls", cfg.Database.Name)
	assert.Equal(t, "sensor_readings", cfg.Database.ReadingsCollection)
	assert.Equal(t, 10*time.Second, cfg.Database.OperationTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
}

func TestLoadApiConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("MONGODB_URI", "mongodb://mongo:27017/?replicaSet=rs0")
	t.Setenv("DB_NAME", "walls")
	t.Setenv("COLL_NAME", "readings")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_OPERATION_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := LoadApiConfig()
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.Server.Port)
	assert.Equal(t, "mongodb://mongo:27017/?replicaSet=rs0", cfg.Database.URI)
	assert.Equal(t, "walls", cfg.Database.Name)
	assert.Equal(t, "readings", cfg.Database.ReadingsCollection)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.Database.OperationTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "3000", MaxBodyBytes: 1024},
			Database: DatabaseConfig{
				URI:                    "mongodb://localhost:27017",
				Name:                   "climbing_walls",
				ReadingsCollection:     "sensor_readings",
				ConnectTimeout:         time.Second,
				ServerSelectionTimeout: time.Second,
				OperationTimeout:       time.Second,
				MaxPoolSize:            10,
			},
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Database.URI = ""
	assert.ErrorContains(t, cfg.Validate(), "MONGODB_URI")

	cfg = valid()
	cfg.Database.OperationTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "timeouts")

	cfg = valid()
	cfg.Database.MinPoolSize = 20
	assert.ErrorContains(t, cfg.Validate(), "DB_MIN_POOL_SIZE")
}

func TestLoadIngestorConfig(t *testing.T) {
	t.Setenv("BROKER_HOST", "broker.local")
	t.Setenv("BROKER_TLS", "true")
	t.Setenv("BROKER_PORT", "8883")
	t.Setenv("API_SERVICE_URL", "http://api:3000/")
	t.Setenv("BATCH_SIZE", "10")

	cfg, err := LoadIngestorConfig()
	require.NoError(t, err)

	assert.Equal(t, "tcps://broker.local:8883", cfg.GetMQTTBrokerURL())
	assert.Equal(t, "http://api:3000", cfg.ApiServiceURL)
	assert.Equal(t, "gateways/+/readings", cfg.MQTT.Topic)
	assert.Equal(t, 10, cfg.Batch.Size)
}

func TestMalformedVariableIsReported(t *testing.T) {
	t.Setenv("DB_OPERATION_TIMEOUT", "soon")

	_, err := LoadApiConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid DB_OPERATION_TIMEOUT="soon"`)
}

func TestIngestorConfigRejectsBadBatch(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")

	_, err := LoadIngestorConfig()
	assert.ErrorContains(t, err, "BATCH_SIZE must be positive")
}
