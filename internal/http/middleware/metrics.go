package middleware

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/magix-backend/internal/observability"
)

const (
	routeUnmatched = "unmatched"
	// statusClientClosed marks requests whose caller went away, usually mid NDJSON stream.
	statusClientClosed = "499"
)

// Metrics records request counts and latency per route template. A nil m disables it.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		m.ObserveAPI(c.Request.Method, metricsRoute(c), metricsStatus(c), time.Since(start))
	}
}

// metricsRoute keeps label cardinality bounded: ids never reach the label.
func metricsRoute(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return routeUnmatched
}

func metricsStatus(c *gin.Context) string {
	if errors.Is(c.Request.Context().Err(), context.Canceled) {
		return statusClientClosed
	}
	return strconv.Itoa(c.Writer.Status())
}
