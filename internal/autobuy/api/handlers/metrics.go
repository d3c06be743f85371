package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trigg3rX/autobuy-backend/pkg/logging"
)

// MetricsHandler exposes the Prometheus registry
type MetricsHandler struct {
	logger  logging.Logger
	handler http.Handler
}

func NewMetricsHandler(logger logging.Logger) *MetricsHandler {
	return &MetricsHandler{
		logger:  logger,
		handler: promhttp.Handler(),
	}
}

func (h *MetricsHandler) Metrics(c *gin.Context) {
	h.logger.Debug("Serving metrics endpoint")
	h.handler.ServeHTTP(c.Writer, c.Request)
}
