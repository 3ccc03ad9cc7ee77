package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ksohaib16/Test-Generator/internal/service"
)

// Metrics observes every request against the route template so path
// parameters do not explode label cardinality.
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
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
