// Package middleware provides the request-scoped checks the protected
// routes are composed from: bearer-token verification, role
// enforcement, and redis-backed rate limiting. Each middleware either
// passes the request on or answers with a terminal status, so the
// chain reads as an ordered list of allow/deny decisions.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lingodex/backend/internal/utils"
)

// Context keys populated by JWTAuth for downstream middleware and
// handlers.
const (
	CtxUserID       = "user_id"
	CtxUsername     = "username"
	CtxRole         = "role"
	CtxAuthMethodID = "auth_method_id"
)

// JWTAuth validates a Bearer access token and injects its claims into
// the request context. Verification is signature plus expiry only; no
// storage lookup happens for access tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(CtxUserID, claims.Subject)
			c.Set(CtxUsername, claims.Username)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxAuthMethodID, claims.AuthMethodID)
			return next(c)
		}
	}
}
