package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	logger "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Logger"
)

// RequestLogger writes one access log line per request. 5xx responses are
// logged at error, 4xx at warn and everything else at info.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	access := log.WithComponent("http")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := access.WithFields(map[string]interface{}{
			"request_id": GetRequestIDFromGinContext(c),
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": float64(time.Since(start).Microseconds()) / 1000,
			"client_ip":  c.ClientIP(),
			"bytes":      c.Writer.Size(),
		})

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}
	}
}
