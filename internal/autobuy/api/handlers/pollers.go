package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trigg3rX/autobuy-backend/internal/autobuy/metrics"
	"github.com/trigg3rX/autobuy-backend/internal/autobuy/poller"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
)

type PollerHandler struct {
	logger  logging.Logger
	pollers []poller.Runner
}

func NewPollerHandler(logger logging.Logger, pollers []poller.Runner) *PollerHandler {
	return &PollerHandler{
		logger:  logger,
		pollers: pollers,
	}
}

// List returns the stats of every running poller plus overall swap numbers
func (h *PollerHandler) List(c *gin.Context) {
	stats := make([]poller.Stats, 0, len(h.pollers))
	for _, p := range h.pollers {
		stats = append(stats, p.Stats())
	}

	total, successful, avgSeconds := metrics.GetSwapStats()
	successRate := 0.0
	if total > 0 {
		successRate = float64(successful) / float64(total) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"pollers": stats,
			"swap_stats": gin.H{
				"total_swaps":                    total,
				"successful_swaps":               successful,
				"failed_swaps":                   total - successful,
				"success_rate_percent":           successRate,
				"average_execution_time_seconds": avgSeconds,
			},
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *PollerHandler) Get(c *gin.Context) {
	name := c.Param("name")
	for _, p := range h.pollers {
		if p.Name() == name {
			c.JSON(http.StatusOK, gin.H{
				"status":    "success",
				"data":      p.Stats(),
				"timestamp": time.Now().UTC(),
			})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{
		"status":   "error",
		"error":    "unknown poller " + name,
		"trace_id": getTraceID(c),
	})
}
