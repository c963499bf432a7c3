package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/middleware"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/repository"
)

// IncidentStore is the operator view of sale incidents.
type IncidentStore interface {
	ListOpen(ctx context.Context, limit int) ([]repository.IncidentRecord, error)
	Resolve(ctx context.Context, id, staffID string) error
}

// IncidentHandler lets managers work through sales that were paid but not
// completed cleanly.
type IncidentHandler struct {
	Incidents IncidentStore
	Log       logrus.FieldLogger
}

// List returns open incidents, oldest first.  ?limit caps the result.
func (h *IncidentHandler) List(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			return badRequest(c, "limit must be between 1 and 500")
		}
		limit = n
	}
	items, err := h.Incidents.ListOpen(c.Request().Context(), limit)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Resolve closes an incident in the caller's name.
func (h *IncidentHandler) Resolve(c echo.Context) error {
	id := c.Param("id")
	if err := h.Incidents.Resolve(c.Request().Context(), id, middleware.StaffID(c)); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
