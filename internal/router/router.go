// Package router wires handlers to routes. All routes live under the
// /api prefix; protected groups apply the JWT middleware and, where
// needed, a role check on top.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fleett/fleett-api/internal/handler"
	"github.com/fleett/fleett-api/internal/middleware"
)

// RegisterHealth exposes the health check. Load balancers and uptime
// probes hit this without credentials.
func RegisterHealth(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/api/health", h.Health)
}

// RegisterAuth registers the authentication endpoints. Register, login
// and refresh are open; /api/me requires a valid access token. Logout
// accepts either a bearer token or a refresh token in the body, so it
// stays outside the protected group.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	auth := e.Group("/api")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}
