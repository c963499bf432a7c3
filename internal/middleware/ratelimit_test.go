package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/config"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/logger"
)

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/pos/sessions/abc/seats", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/pos/sessions/:id/seats")
	c.Set(ctxStaffID, "cashier-01")

	cfg := config.RateLimitConfig{Prefix: "pos:rl"}
	route := "POST /v1/pos/sessions/:id/seats"

	cfg.KeyStrategy = "staff_route"
	assert.Equal(t, "pos:rl:staff:cashier-01:route:"+route, rateKey(cfg, c))
	cfg.KeyStrategy = "ip"
	assert.Equal(t, "pos:rl:ip:10.0.0.7", rateKey(cfg, c))
	cfg.KeyStrategy = ""
	assert.Equal(t, "pos:rl:ip:10.0.0.7:staff:cashier-01:route:"+route, rateKey(cfg, c))
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, logger.Discard())

	rec := serve(t, ok, "", mw)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}
