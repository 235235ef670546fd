package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.ApiService/server"
	container "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Container"
)

func main() {
	ctr, err := container.NewApiContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize container: %v\n", err)
		os.Exit(1)
	}

	runErr := run(ctr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ctr.GetConfig().Server.ShutdownTimeout)
	shutdownErr := ctr.Shutdown(shutdownCtx)
	cancel()

	if runErr != nil {
		ctr.GetLogger().ErrorWithError(runErr, "Sensor API service stopped with error")
		os.Exit(1)
	}
	if shutdownErr != nil {
		os.Exit(1)
	}
}

func run(ctr *container.Container) error {
	log := ctr.GetLogger().WithComponent("api")
	cfg := ctr.GetConfig()
	log.Info("Starting sensor API service")

	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	err := ctr.InitializeDatabase(connectCtx)
	cancel()
	if err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}

	container.SetGinMode(cfg.Logging.Level)
	router := server.NewRouter(cfg, ctr.GetLogger(), ctr.GetSensorDataService(), ctr.GetHealthChecker())

	srv := container.NewHTTPServer(cfg.Server, router)
	return errors.Wrap(container.Serve(context.Background(), srv, cfg.Server.ShutdownTimeout, log), "HTTP server stopped")
}
