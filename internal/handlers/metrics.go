package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// MetricsHandler serves the Prometheus exposition format.
type MetricsHandler struct {
	handler gin.HandlerFunc
}

// NewMetricsHandler serves metrics from gatherer, falling back to the
// default registry when nil.
func NewMetricsHandler(logger *logrus.Logger, gatherer prometheus.Gatherer) *MetricsHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &MetricsHandler{
		handler: gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
			ErrorLog:      logger,
			ErrorHandling: promhttp.ContinueOnError,
		})),
	}
}

func (h *MetricsHandler) Serve(c *gin.Context) {
	h.handler(c)
}
