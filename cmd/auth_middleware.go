package cmd

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"evalgo.org/featureinfo/auth"
)

// context keys set by AuthMiddleware
const (
	ctxPrincipal     = "principal"
	ctxAuthenticated = "authenticated"
)

// authConfig selects how callers are authenticated
type authConfig struct {
	Mode      auth.AuthMode
	APIKey    string
	JWTSecret string
}

// AuthMiddleware validates the x-api-key header or a bearer token depending on the mode
func AuthMiddleware(cfg authConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch cfg.Mode {
			case auth.AuthModeAPIKey:
				apiKey := c.Request().Header.Get("x-api-key")
				if apiKey == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "Missing x-api-key header")
				}
				if err := auth.CheckAPIKey(apiKey, cfg.APIKey); err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key")
				}
				c.Set(ctxPrincipal, auth.Principal{ID: "api-key", Username: "api-key", Role: auth.RoleAdmin})

			case auth.AuthModeJWT:
				header := c.Request().Header.Get(echo.HeaderAuthorization)
				token, ok := strings.CutPrefix(header, "Bearer ")
				if !ok || strings.TrimSpace(token) == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "Missing bearer token")
				}
				claims, err := auth.ValidateToken(strings.TrimSpace(token), cfg.JWTSecret)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
				}
				c.Set(ctxPrincipal, claims.Principal())

			default:
				return next(c)
			}

			c.Set(ctxAuthenticated, true)
			return next(c)
		}
	}
}

// AdminOnlyMiddleware ensures only admin callers can access when authentication is enabled
func AdminOnlyMiddleware(mode auth.AuthMode) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if mode == auth.AuthModeNone {
				return next(c)
			}
			p, ok := GetCurrentPrincipal(c)
			if !ok || p.Role != auth.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		}
	}
}

// GetCurrentPrincipal returns the authenticated caller from context
func GetCurrentPrincipal(c echo.Context) (auth.Principal, bool) {
	p, ok := c.Get(ctxPrincipal).(auth.Principal)
	return p, ok
}
