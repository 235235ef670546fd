package database

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"

	config "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Config"
	logger "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

// ErrNotInitialized is returned by every accessor before Connect or Attach
// has succeeded, and again after Close.
var ErrNotInitialized = errors.New("database not initialized")

// Gateway owns the single MongoDB client shared by the process.
type Gateway struct {
	cfg    *config.DatabaseConfig
	logger *logger.Logger

	mu     sync.RWMutex
	client *mongo.Client
}

// NewGateway creates an unconnected gateway.
func NewGateway(cfg *config.DatabaseConfig, log *logger.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		logger: log.WithComponent("database"),
	}
}

// Connect dials MongoDB and verifies the primary answers a ping within
// ConnectTimeout. Calling Connect on a connected gateway is a no-op.
func (g *Gateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, g.clientOptions())
	if err != nil {
		return fmt.Errorf("unable to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("unable to ping MongoDB: %w", err)
	}

	g.client = client
	g.logger.WithFields(map[string]interface{}{
		"database":   g.cfg.Name,
		"collection": g.cfg.ReadingsCollection,
	}).Info("Connected to MongoDB")
	return nil
}

func (g *Gateway) clientOptions() *options.ClientOptions {
	opts := options.Client().
		ApplyURI(g.cfg.URI).
		SetConnectTimeout(g.cfg.ConnectTimeout).
		SetServerSelectionTimeout(g.cfg.ServerSelectionTimeout).
		SetMaxPoolSize(uint64(g.cfg.MaxPoolSize)).
		SetMinPoolSize(uint64(g.cfg.MinPoolSize))

	if g.cfg.UseTLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
		})
	}
	return opts
}

// Attach installs an already connected client.
func (g *Gateway) Attach(client *mongo.Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.client = client
}

// IsConnected reports whether a client is installed.
func (g *Gateway) IsConnected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.client != nil
}

// Collection returns a handle to the named collection of the configured
// database.
func (g *Gateway) Collection(name string) (*mongo.Collection, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.client == nil {
		return nil, ErrNotInitialized
	}
	return g.client.Database(g.cfg.Name).Collection(name), nil
}

// Readings returns the sensor readings collection.
func (g *Gateway) Readings() (*mongo.Collection, error) {
	return g.Collection(g.cfg.ReadingsCollection)
}

// Ping checks the primary is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	g.mu.RLock()
	client := g.client
	g.mu.RUnlock()

	if client == nil {
		return ErrNotInitialized
	}
	return client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes serving the reading filters and the
// newest-first sort. Existing identical indexes are left alone.
func (g *Gateway) EnsureIndexes(ctx context.Context) error {
	coll, err := g.Readings()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.OperationTimeout)
	defer cancel()

	names, err := coll.Indexes().CreateMany(ctx, ReadingIndexes())
	if err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", g.cfg.ReadingsCollection, err)
	}

	g.logger.WithField("indexes", names).Debug("Reading indexes ensured")
	return nil
}

// ReadingIndexes lists the indexes kept on the readings collection.
func ReadingIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "wall_id", Value: 1}, {Key: "server_timestamp", Value: -1}},
			Options: options.Index().SetName("wall_id_server_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "server_timestamp", Value: -1}},
			Options: options.Index().SetName("server_timestamp"),
		},
	}
}

// Close disconnects the client. The gateway reports ErrNotInitialized
// afterwards.
func (g *Gateway) Close(ctx context.Context) error {
	g.mu.Lock()
	client := g.client
	g.client = nil
	g.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	g.logger.Info("Disconnected from MongoDB")
	return nil
}

// IsUnavailable reports whether err means the database could not be reached
// at all, as opposed to an operation the server rejected.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotInitialized) || errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	var selection topology.ServerSelectionError
	if errors.As(err, &selection) {
		return true
	}
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}
