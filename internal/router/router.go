// Package router wires the HTTP routes to their handlers and
// middleware chains.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/lingodex/backend/internal/config"
	"github.com/lingodex/backend/internal/handler"
	"github.com/lingodex/backend/internal/middleware"
	"github.com/lingodex/backend/internal/model"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication surface.
//
// Unauthenticated session-establishing operations live under /v1/auth
// behind the redis token bucket: register, login, refresh, and the
// Google OAuth pair. Operations needing a valid access token live
// under /v1: logout and the claims echo for any user, and the
// auth-method lookup for administrators.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, o *handler.OAuthHandler, cfg config.Config, rdb *redis.Client) {
	public := e.Group("/v1/auth")
	public.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	public.POST("/register", a.Register)
	public.POST("/login", a.Login)
	public.POST("/refresh", a.Refresh)
	if o != nil {
		public.GET("/google", o.GoogleBegin)
		public.GET("/google/callback", o.GoogleCallback)
	}

	protected := e.Group("/v1")
	protected.Use(middleware.JWTAuth(cfg.JWTSecret))
	protected.POST("/auth/logout", a.Logout)
	protected.GET("/auth/me", a.Me)

	admin := protected.Group("/auth/users", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/:id/methods", a.UserAuthMethods)
}
