package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/handler"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/middleware"
)

// RegisterOps registers the manager-only incident endpoints under /v1/ops.
func RegisterOps(e *echo.Echo, incidents *handler.IncidentHandler, jwtSecret string) {
	g := e.Group("/v1/ops",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleManager),
	)
	g.GET("/incidents", incidents.List)
	g.POST("/incidents/:id/resolve", incidents.Resolve)
}
