// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	events  EventManager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, events EventManager) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		events:  events,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.events != nil {
		resp["events"] = len(h.events.List())
	}
	return c.JSON(http.StatusOK, resp)
}
