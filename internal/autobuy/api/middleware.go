package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trigg3rX/autobuy-backend/internal/autobuy/api/handlers"
	"github.com/trigg3rX/autobuy-backend/internal/autobuy/metrics"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
)

// TraceMiddleware tags every request with a trace id, reusing the caller's when given
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(handlers.TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		c.Set(handlers.TraceIDKey, traceID)
		c.Header(handlers.TraceIDHeader, traceID)
		c.Next()
	}
}

// MetricsMiddleware counts requests by route template
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.TrackHTTPRequest(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()))
	}
}

// LoggerMiddleware logs requests under /api/ only, so scrapes and probes stay quiet
func LoggerMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Next()
			return
		}

		startTime := time.Now()
		traceID, _ := c.Get(handlers.TraceIDKey)

		c.Next()

		logger.Info("Request processed",
			"trace_id", traceID,
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"ip", c.ClientIP(),
			"latency", time.Since(startTime),
		)
	}
}

// ErrorMiddleware handles errors in a consistent way
func ErrorMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		traceID, _ := c.Get(handlers.TraceIDKey)
		logger.Error("Request failed",
			"trace_id", traceID,
			"error", err.Error(),
			"path", c.Request.URL.Path,
		)
		if !c.Writer.Written() {
			c.JSON(c.Writer.Status(), gin.H{
				"error":    err.Error(),
				"trace_id": traceID,
			})
		}
	}
}
