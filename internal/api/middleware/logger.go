package middleware

import (
	"time"

	"storefront/internal/logger"

	"github.com/gin-gonic/gin"
)

func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := log.With(
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
		switch {
		case status >= 500:
			entry.Error("%s %s", c.Request.Method, path)
		case status >= 400:
			entry.Warn("%s %s", c.Request.Method, path)
		default:
			entry.Info("%s %s", c.Request.Method, path)
		}
	}
}
