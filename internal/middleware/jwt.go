package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/apiclient"
)

// Context keys set by JWTAuth.
const (
	ctxStaffID = "staff_id"
	ctxRole    = "role"
	ctxToken   = "token"
)

// JWTAuth validates the staff Bearer token and stores the subject, the role
// claim and the raw token in the echo context.  The raw token is also
// attached to the request context so calls to the cinema API are made on
// behalf of the same staff member.
func JWTAuth(secret string) echo.MiddlewareFunc {
	keyFunc := func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, found := strings.CutPrefix(auth, "Bearer ")
			if !found || raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}

			tok, err := jwt.Parse(raw, keyFunc)
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			sub, _ := claims.GetSubject()
			if sub == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token has no subject"})
			}
			role, _ := claims["role"].(string)

			c.Set(ctxStaffID, sub)
			c.Set(ctxRole, role)
			c.Set(ctxToken, raw)
			req := c.Request()
			c.SetRequest(req.WithContext(apiclient.WithToken(req.Context(), raw)))
			return next(c)
		}
	}
}
