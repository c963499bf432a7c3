// Package router registers the HTTP routes of the POS service.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/handler"
)

// RegisterRoutes registers the unauthenticated endpoints.
func RegisterRoutes(e *echo.Echo, health *handler.HealthHandler) {
	e.GET("/healthz", health.Health)
}
