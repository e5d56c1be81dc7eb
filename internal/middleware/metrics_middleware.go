package middleware

import (
	"time"

	"grocery_backend/internal/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records request latency labelled by the matched route.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
