package container

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.ApiService/health"
	config "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Config"
	database "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Database"
	logger "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Logger"
	implementation "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Repository/Implementation"
	service "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Service"
)

// lifecycle collects teardown steps and runs them newest first, once.
type lifecycle struct {
	mu       sync.Mutex
	cleanups []func(ctx context.Context) error
	logger   *logger.Logger
}

// AddCleanupFunc registers fn to run on Shutdown with the shutdown context.
func (l *lifecycle) AddCleanupFunc(fn func(ctx context.Context) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cleanups = append(l.cleanups, fn)
}

// Shutdown runs the registered cleanups under ctx. Failures are logged and do
// not stop the remaining steps; the first one is returned.
func (l *lifecycle) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	pending := l.cleanups
	l.cleanups = nil
	l.mu.Unlock()

	var first error
	for idx := len(pending) - 1; idx >= 0; idx-- {
		if err := pending[idx](ctx); err != nil {
			l.logger.ErrorWithError(err, "Cleanup step failed")
			if first == nil {
				first = err
			}
		}
	}
	l.logger.Info("Shutdown complete")
	return first
}

// Container owns the API service dependencies.
type Container struct {
	lifecycle

	config  *config.Config
	gateway *database.Gateway

	mu                sync.Mutex
	healthChecker     *health.HealthChecker
	sensorDataService *service.SensorDataService
}

// NewApiContainer loads the API configuration from the environment.
func NewApiContainer() (*Container, error) {
	cfg, err := config.LoadApiConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load API configuration")
	}
	return NewContainer(cfg, logger.NewLogger(&cfg.Logging)), nil
}

// NewContainer wires a container from cfg. MongoDB is not contacted until
// InitializeDatabase.
func NewContainer(cfg *config.Config, log *logger.Logger) *Container {
	return &Container{
		lifecycle: lifecycle{logger: log},
		config:    cfg,
		gateway:   database.NewGateway(&cfg.Database, log),
	}
}

func (c *Container) GetConfig() *config.Config      { return c.config }
func (c *Container) GetLogger() *logger.Logger      { return c.logger }
func (c *Container) GetDatabase() *database.Gateway { return c.gateway }

// GetHealthChecker returns the shared checker pinging the gateway.
func (c *Container) GetHealthChecker() *health.HealthChecker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.healthChecker == nil {
		c.healthChecker = health.NewHealthChecker(c.gateway, c.config.Database.OperationTimeout, c.logger)
	}
	return c.healthChecker
}

// GetSensorDataService returns the shared reading service.
func (c *Container) GetSensorDataService() *service.SensorDataService {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sensorDataService == nil {
		repo := implementation.NewMongoReadingRepository(c.gateway, c.config.Database.OperationTimeout)
		c.sensorDataService = service.NewSensorDataService(repo, c.config.Database.ReadingsCollection, c.logger)
	}
	return c.sensorDataService
}

// InitializeDatabase connects the gateway, schedules its disconnect and
// provisions the reading indexes.
func (c *Container) InitializeDatabase(ctx context.Context) error {
	if err := c.gateway.Connect(ctx); err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}

	c.AddCleanupFunc(c.gateway.Close)

	if err := c.gateway.EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "failed to ensure indexes")
	}

	c.logger.Info("Database initialized successfully")
	return nil
}

// IngestorContainer owns the gateway bridge dependencies.
type IngestorContainer struct {
	lifecycle

	config *config.IngestorConfig
}

// NewIngestorContainer loads the bridge configuration from the environment.
func NewIngestorContainer() (*IngestorContainer, error) {
	cfg, err := config.LoadIngestorConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ingestor configuration")
	}
	return &IngestorContainer{
		lifecycle: lifecycle{logger: logger.NewLogger(&cfg.Logging)},
		config:    cfg,
	}, nil
}

func (c *IngestorContainer) GetConfig() *config.IngestorConfig { return c.config }
func (c *IngestorContainer) GetLogger() *logger.Logger         { return c.logger }
