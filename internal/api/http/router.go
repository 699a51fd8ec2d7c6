package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staffrep-bot/internal/api/http/handlers"
	"github.com/spec-kit/staffrep-bot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	adminGroup := app.Group("/admin")
	adminGroup.Post("/login", cfg.Admin.Login)

	protected := adminGroup.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/stats", cfg.Admin.Stats)
	protected.Post("/cache/refresh", cfg.Admin.RefreshCache)
	protected.Get("/leaves/pending", cfg.Admin.PendingLeaves)
}
