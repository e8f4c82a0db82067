package handler

import (
	"net/http"
	"time"

	"shotpay-gateway/api"

	"github.com/labstack/echo/v4"
)

// readinessTimeout bounds the backend probe so a stalled backend cannot hang
// the readiness endpoint.
const readinessTimeout = 3 * time.Second

// HealthHandler serves the gateway's liveness and readiness probes.
type HealthHandler struct {
	apiClient *api.Client
}

// NewHealthHandler creates a health handler. The client is used to probe the
// ShotPay backend for readiness.
func NewHealthHandler(apiClient *api.Client) *HealthHandler {
	return &HealthHandler{apiClient: apiClient}
}

// Live reports process liveness.
func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready reports whether the ShotPay backend is reachable. The gateway still
// serves pages when the backend is down, so this is degraded, not dead.
func (h *HealthHandler) Ready(c echo.Context) error {
	err := h.apiClient.Get(c.Request().Context(), api.EndpointHealthLive, nil, &api.RequestOptions{
		SkipAuth: true,
		NoRetry:  true,
		Timeout:  readinessTimeout,
	})
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"reason": "backend unreachable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}
