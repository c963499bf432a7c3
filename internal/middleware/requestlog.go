package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLog writes one structured line per request.  Server errors are
// logged at error level, client errors at warn.
func RequestLog(log *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			res := c.Response()
			entry := log.WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"route":      c.Path(),
				"uri":        c.Request().RequestURI,
				"status":     res.Status,
				"latency_ms": time.Since(start).Milliseconds(),
				"ip":         c.RealIP(),
				"request_id": res.Header().Get(echo.HeaderXRequestID),
			})
			if id := StaffID(c); id != "" {
				entry = entry.WithField("staff_id", id)
			}
			switch {
			case res.Status >= 500:
				entry.WithError(err).Error("request")
			case res.Status >= 400:
				entry.Warn("request")
			default:
				entry.Debug("request")
			}
			return nil
		}
	}
}
