package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sql.DB and a wrapped Redis client.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and, when configured, dependency health.
type HealthHandler struct {
	Deps map[string]Pinger
}

// Health answers 200 when every dependency responds and 503 otherwise.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.Deps))
	for name, p := range h.Deps {
		if err := p.PingContext(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	return c.JSON(status, echo.Map{"status": http.StatusText(status), "checks": checks})
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }
