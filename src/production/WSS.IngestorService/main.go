package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	container "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Container"
	"gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.IngestorService/client"
	wssingestor "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.IngestorService/ingestor"
)

func main() {
	ctr, err := container.NewIngestorContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize container: %v\n", err)
		os.Exit(1)
	}

	runErr := run(ctr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ctr.GetConfig().Server.ShutdownTimeout)
	shutdownErr := ctr.Shutdown(shutdownCtx)
	cancel()

	if runErr != nil {
		ctr.GetLogger().ErrorWithError(runErr, "Gateway MQTT bridge stopped with error")
		os.Exit(1)
	}
	if shutdownErr != nil {
		os.Exit(1)
	}
}

func run(ctr *container.IngestorContainer) error {
	log := ctr.GetLogger().WithComponent("bridge")
	cfg := ctr.GetConfig()
	log.Info("Starting gateway MQTT bridge")

	ctx, cancel := context.WithCancel(context.Background())
	ctr.AddCleanupFunc(func(context.Context) error {
		cancel()
		return nil
	})

	apiClient := client.NewAPIClient(cfg.ApiServiceURL)
	ing := wssingestor.New(cfg, apiClient, ctr.GetLogger())
	ctr.AddCleanupFunc(func(context.Context) error {
		ing.Stop()
		return nil
	})
	if err := ing.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start MQTT ingestor")
	}

	container.SetGinMode(cfg.Logging.Level)
	srv := container.NewHTTPServer(cfg.Server, wssingestor.NewHealthRouter(ing, apiClient))
	return errors.Wrap(container.Serve(ctx, srv, cfg.Server.ShutdownTimeout, log), "health server stopped")
}
