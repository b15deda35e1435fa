package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/KumudBhatt/Code-Nexus/internal/services"
)

type MetricsHandler struct {
	metrics *services.Metrics
	token   string
}

func NewMetricsHandler(metrics *services.Metrics, token string) *MetricsHandler {
	return &MetricsHandler{
		metrics: metrics,
		token:   token,
	}
}

// Handle serves the operational metrics snapshot. Disabled unless a token is
// configured; the token travels in the X-Metrics-Token header.
func (h *MetricsHandler) Handle(re *core.RequestEvent) error {
	if h.token == "" {
		return re.JSON(http.StatusNotFound, map[string]string{"error": "metrics disabled"})
	}

	provided := re.Request.Header.Get("X-Metrics-Token")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.token)) != 1 {
		return re.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	}

	return re.JSON(http.StatusOK, h.metrics.Snapshot())
}
