// Package middleware contains the reusable HTTP middleware: bearer
// authentication, the admin key check, Redis rate limiting and the game
// listing cache.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/studentseats/ticket-marketplace/internal/utils"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

// Auth returns an Echo middleware that validates the access token and injects
// the user ID and email into the request context. The web client sends the
// token verbatim as the Authorization header value with no scheme prefix, so
// the header is treated as the raw token; a conventional "Bearer " prefix is
// tolerated and stripped for callers like curl.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get("Authorization"))
			raw = strings.TrimPrefix(raw, "Bearer ")
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxEmail, claims.Email)
			return next(c)
		}
	}
}

// AdminKey returns a middleware guarding the game management and ticket
// verification endpoints. The Authorization header must equal the configured
// static admin API key.
func AdminKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" || c.Request().Header.Get("Authorization") != key {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}
