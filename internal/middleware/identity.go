package middleware

import "github.com/labstack/echo/v4"

// StaffID returns the authenticated staff id, or "" outside JWTAuth.
func StaffID(c echo.Context) string {
	s, _ := c.Get(ctxStaffID).(string)
	return s
}

// Role returns the authenticated staff role, or "".
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// rateSubject identifies the caller for rate limiting.
func rateSubject(c echo.Context) string {
	if id := StaffID(c); id != "" {
		return id
	}
	return "anon"
}
