package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"soulbound.backend/pkg/logger"
)

// quietPaths are polled by probes and scrapers and not worth a log line.
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// LoggerMiddleware logs HTTP requests using the structured logger.
// Redemption codes travel in the body, so only the path and query are logged.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if _, quiet := quietPaths[path]; quiet && c.Writer.Status() < 400 {
			return
		}
		if raw != "" {
			path = path + "?" + raw
		}

		// request and user ids are read from c.Request.Context()
		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}
