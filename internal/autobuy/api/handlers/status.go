package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trigg3rX/autobuy-backend/pkg/logging"
)

// HealthCheck reports whether a dependency the pollers need is reachable.
type HealthCheck func(ctx context.Context) error

const healthCheckTimeout = 3 * time.Second

// StatusHandler handles status endpoint requests
type StatusHandler struct {
	logger    logging.Logger
	health    HealthCheck
	startedAt time.Time
}

func NewStatusHandler(logger logging.Logger, health HealthCheck, startedAt time.Time) *StatusHandler {
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	return &StatusHandler{
		logger:    logger,
		health:    health,
		startedAt: startedAt,
	}
}

// Status answers 200 while the store is reachable and 503 otherwise
func (h *StatusHandler) Status(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	response := gin.H{
		"service":   "autobuy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	}

	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()
		if err := h.health(ctx); err != nil {
			h.logger.Warn("Health check failed", "trace_id", getTraceID(c), "error", err)
			status, code = "unhealthy", http.StatusServiceUnavailable
			response["error"] = err.Error()
		}
	}

	response["status"] = status
	c.JSON(code, response)
}
