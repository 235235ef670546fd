package container

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	config "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Config"
	logger "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Logger"
)

// NewHTTPServer builds a server for handler using the listener settings.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// SetGinMode keeps gin in debug mode only when debug logging is on.
func SetGinMode(level string) {
	if level == "debug" {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}

// Serve runs srv until ctx is cancelled or SIGINT/SIGTERM arrives, then
// drains it within shutdownTimeout. A listener failure is returned.
func Serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on " + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			failed <- err
		}
		close(failed)
	}()

	select {
	case err := <-failed:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(drainCtx); err != nil {
		log.ErrorWithError(err, "HTTP server forced to shutdown")
		return err
	}
	return nil
}
