package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salesdeck/crm-api/pkg/logger"
)

// Logger logs one line per request, leveled by response status.
// Request bodies are never logged; deal and contact payloads carry
// customer data.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		event := log.Zerolog().Info()
		switch {
		case status >= 500:
			event = log.Zerolog().Error()
		case status >= 400:
			event = log.Zerolog().Warn()
		}

		event.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_agent", c.Request.UserAgent()).
			Msg("request processed")
	}
}
