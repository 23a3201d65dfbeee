package middleware

import (
	"time"

	"granito/internal/logger"

	"github.com/gin-gonic/gin"
)

// Logger writes one structured line per request.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		entry := log.With(map[string]interface{}{
			"method":    c.Request.Method,
			"path":      path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		switch {
		case len(c.Errors) > 0:
			entry.Error("%s", c.Errors.String())
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}
