package config

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"glasspro-backend/utils"
)

const slowRequestThreshold = 200 * time.Millisecond

// isStream reports event-stream requests, which stay open for the life of
// the connection.
func isStream(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/stream/") ||
		c.Writer.Header().Get("Content-Type") == "text/event-stream"
}

func PerformanceLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		entry := utils.Logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": latency.String(),
		})
		if tenant := c.GetString(utils.ContextTenantID); tenant != "" {
			entry = entry.WithField("tenant", tenant)
		}

		if latency > slowRequestThreshold && !isStream(c) {
			entry.Warn("[PERF] slow request")
			return
		}
		entry.Info("[PERF] request")
	}
}
