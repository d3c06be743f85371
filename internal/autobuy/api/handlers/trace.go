package handlers

import "github.com/gin-gonic/gin"

const (
	TraceIDHeader = "X-Trace-ID"
	TraceIDKey    = "trace_id"
)

func getTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(TraceIDKey); exists {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}
