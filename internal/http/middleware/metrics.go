package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SHIS22proxy/paygate/internal/metrics"
)

// Metrics counts requests per route template so path parameters do not
// explode the label space.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
