package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/devscout-auth/internal/service"
)

// unmatchedPath labels requests outside the router, such as frontend pages
// rejected by the session gate, so they share one series.
const unmatchedPath = "unmatched"

// Metrics returns middleware that captures request metrics using the provided service.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
