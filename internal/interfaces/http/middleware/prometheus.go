package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/infrastructure/metrics"
)

// PrometheusMetrics feeds request counts, latency and in-flight requests into
// the scrape registry served on /metrics. A nil registry disables it.
func PrometheusMetrics(registry *metrics.PrometheusRegistry) gin.HandlerFunc {
	if registry == nil {
		return passThrough
	}
	return func(c *gin.Context) {
		start := time.Now()
		done := registry.RequestStarted()
		defer done()

		c.Next()

		registry.ObserveRequest(c.Request.Method, routePattern(c), c.Writer.Status(), time.Since(start))
	}
}
