package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/menuhub/menuhub/internal/telemetry"
)

// noRoute labels requests that matched no route, keeping unknown paths out
// of the label set.
const noRoute = "<no-route>"

// MetricsMiddleware records menuhub_http_requests_total and
// menuhub_http_request_duration_seconds for every request. The path label is
// the matched route template (c.FullPath()), e.g. /api/v1/public/:slug/menu,
// so tenant slugs never become label values.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = noRoute
		}

		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
