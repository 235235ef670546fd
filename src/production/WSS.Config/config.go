package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config is the API service configuration, read from the environment.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
	CORS     CORSConfig     `json:"cors"`
}

// ServerConfig covers the HTTP listener.
type ServerConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	MaxBodyBytes    int64         `json:"max_body_bytes"`
}

// DatabaseConfig locates the readings collection and bounds every Mongo call.
type DatabaseConfig struct {
	URI                    string        `json:"-"`
	Name                   string        `json:"name"`
	ReadingsCollection     string        `json:"readings_collection"`
	ConnectTimeout         time.Duration `json:"connect_timeout"`
	ServerSelectionTimeout time.Duration `json:"server_selection_timeout"`
	OperationTimeout       time.Duration `json:"operation_timeout"`
	MaxPoolSize            int           `json:"max_pool_size"`
	MinPoolSize            int           `json:"min_pool_size"`
	UseTLS                 bool          `json:"use_tls"`
}

// MQTTConfig is the broker connection used by the gateway bridge.
type MQTTConfig struct {
	BrokerHost  string        `json:"broker_host"`
	BrokerPort  int           `json:"broker_port"`
	BrokerUser  string        `json:"broker_user"`
	BrokerPass  string        `json:"-"`
	UseTLS      bool          `json:"use_tls"`
	CACertPath  string        `json:"ca_cert_path"`
	Topic       string        `json:"topic"`
	ClientID    string        `json:"client_id"`
	SharedGroup string        `json:"shared_group"`
	KeepAlive   time.Duration `json:"keep_alive"`
	PingTimeout time.Duration `json:"ping_timeout"`
}

type LoggingConfig struct {
	Level        string `json:"level"`
	Format       string `json:"format"` // json or text
	Output       string `json:"output"` // stdout or stderr
	EnableCaller bool   `json:"enable_caller"`
}

type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

// BatchConfig bounds how many readings the bridge holds before forwarding.
type BatchConfig struct {
	Size   int           `json:"size"`
	Window time.Duration `json:"window"`
}

// IngestorConfig is the gateway bridge configuration.
type IngestorConfig struct {
	Server        ServerConfig  `json:"server"`
	MQTT          MQTTConfig    `json:"mqtt"`
	Batch         BatchConfig   `json:"batch"`
	Logging       LoggingConfig `json:"logging"`
	ApiServiceURL string        `json:"api_service_url"`
}

// LoadApiConfig reads the API service configuration. A .env file in the
// working directory is honoured when present.
func LoadApiConfig() (*Config, error) {
	_ = godotenv.Load()
	env := &envReader{}

	cfg := &Config{
		Server: env.server("PORT", "3000"),
		Database: DatabaseConfig{
			URI:                    env.str("MONGODB_URI", "mongodb://localhost:27017"),
			Name:                   env.str("DB_NAME", "climbing_walls"),
			ReadingsCollection:     env.str("COLL_NAME", "sensor_readings"),
			ConnectTimeout:         env.duration("DB_CONNECT_TIMEOUT", 20*time.Second),
			ServerSelectionTimeout: env.duration("DB_SERVER_SELECTION_TIMEOUT", 5*time.Second),
			OperationTimeout:       env.duration("DB_OPERATION_TIMEOUT", 10*time.Second),
			MaxPoolSize:            env.integer("DB_MAX_POOL_SIZE", 25),
			MinPoolSize:            env.integer("DB_MIN_POOL_SIZE", 0),
			UseTLS:                 env.boolean("DB_TLS", false),
		},
		Logging: env.logging(),
		CORS: CORSConfig{
			AllowedOrigins:   env.list("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   env.list("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
			AllowedHeaders:   env.list("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}),
			ExposedHeaders:   env.list("CORS_EXPOSED_HEADERS", []string{"Content-Length", "X-Request-ID"}),
			AllowCredentials: env.boolean("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           env.integer("CORS_MAX_AGE", 43200),
		},
	}
	cfg.Server.MaxBodyBytes = int64(env.integer("MAX_BODY_BYTES", 1<<20))

	if err := env.err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// LoadIngestorConfig reads the gateway bridge configuration.
func LoadIngestorConfig() (*IngestorConfig, error) {
	_ = godotenv.Load()
	env := &envReader{}

	cfg := &IngestorConfig{
		Server: env.server("INGESTOR_PORT", "9003"),
		MQTT: MQTTConfig{
			BrokerHost:  env.str("BROKER_HOST", "localhost"),
			BrokerPort:  env.integer("BROKER_PORT", 1883),
			BrokerUser:  env.str("BROKER_USER", ""),
			BrokerPass:  env.str("BROKER_PASS", ""),
			UseTLS:      env.boolean("BROKER_TLS", false),
			CACertPath:  env.str("BROKER_CA_FILE", ""),
			Topic:       env.str("MQTT_TOPIC", "gateways/+/readings"),
			ClientID:    env.str("MQTT_CLIENT_ID", "wss-ingestor"),
			SharedGroup: env.str("MQTT_SHARED_GROUP", ""),
			KeepAlive:   env.duration("MQTT_KEEP_ALIVE", 30*time.Second),
			PingTimeout: env.duration("MQTT_PING_TIMEOUT", 10*time.Second),
		},
		Batch: BatchConfig{
			Size:   env.integer("BATCH_SIZE", 50),
			Window: env.duration("BATCH_WINDOW", time.Second),
		},
		Logging:       env.logging(),
		ApiServiceURL: strings.TrimRight(env.str("API_SERVICE_URL", "http://localhost:3000"), "/"),
	}

	if err := env.err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "ingestor configuration validation failed")
	}
	return cfg, nil
}

// Validate checks the API configuration is usable.
func (c *Config) Validate() error {
	db := c.Database
	switch {
	case c.Server.Port == "":
		return errors.New("PORT is required")
	case c.Server.MaxBodyBytes <= 0:
		return errors.New("MAX_BODY_BYTES must be positive")
	case db.URI == "":
		return errors.New("MONGODB_URI is required")
	case db.Name == "":
		return errors.New("DB_NAME is required")
	case db.ReadingsCollection == "":
		return errors.New("COLL_NAME is required")
	case db.ConnectTimeout <= 0 || db.ServerSelectionTimeout <= 0 || db.OperationTimeout <= 0:
		return errors.New("database timeouts must be positive")
	case db.MaxPoolSize < 0 || db.MinPoolSize < 0:
		return errors.New("database pool sizes must not be negative")
	case db.MaxPoolSize > 0 && db.MinPoolSize > db.MaxPoolSize:
		return errors.Errorf("DB_MIN_POOL_SIZE (%d) exceeds DB_MAX_POOL_SIZE (%d)", db.MinPoolSize, db.MaxPoolSize)
	}
	return nil
}

// Validate checks the bridge configuration is usable.
func (c *IngestorConfig) Validate() error {
	switch {
	case c.ApiServiceURL == "":
		return errors.New("API_SERVICE_URL is required")
	case c.MQTT.BrokerHost == "":
		return errors.New("BROKER_HOST is required")
	case c.MQTT.Topic == "":
		return errors.New("MQTT_TOPIC is required")
	case c.Batch.Size <= 0:
		return errors.New("BATCH_SIZE must be positive")
	case c.Batch.Window <= 0:
		return errors.New("BATCH_WINDOW must be positive")
	}
	return nil
}

// GetMQTTBrokerURL returns the paho broker address.
func (c *IngestorConfig) GetMQTTBrokerURL() string {
	scheme := "tcp"
	if c.MQTT.UseTLS {
		scheme = "tcps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.MQTT.BrokerHost, c.MQTT.BrokerPort)
}

// envReader reads typed variables, remembering the first malformed one.
type envReader struct {
	first error
}

func (e *envReader) err() error { return e.first }

func (e *envReader) fail(key, value string, cause error) {
	if e.first == nil {
		e.first = errors.Wrapf(cause, "invalid %s=%q", key, value)
	}
}

func (e *envReader) str(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, value, err)
		return def
	}
	return n
}

func (e *envReader) boolean(key string, def bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(key, value, err)
		return def
	}
	return b
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.fail(key, value, err)
		return def
	}
	return d
}

// list splits a comma separated variable, dropping empty items.
func (e *envReader) list(key string, def []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func (e *envReader) server(portKey, defPort string) ServerConfig {
	return ServerConfig{
		Port:            e.str(portKey, defPort),
		ReadTimeout:     e.duration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    e.duration("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     e.duration("IDLE_TIMEOUT", 120*time.Second),
		ShutdownTimeout: e.duration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func (e *envReader) logging() LoggingConfig {
	return LoggingConfig{
		Level:        e.str("LOG_LEVEL", "info"),
		Format:       e.str("LOG_FORMAT", "text"),
		Output:       e.str("LOG_OUTPUT", "stdout"),
		EnableCaller: e.boolean("LOG_ENABLE_CALLER", false),
	}
}
