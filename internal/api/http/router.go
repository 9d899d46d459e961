package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-auth/internal/api/http/handlers"
	"github.com/spec-kit/storefront-auth/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Customers      *handlers.CustomersHandler
	Admin          *handlers.AdminHandler
	PasswordReset  *handlers.PasswordResetHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Customers.Register)
	authGroup.Post("/login", cfg.Customers.Login)
	authGroup.Post("/logout", cfg.Customers.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.RequireCustomer, cfg.Customers.Me)
	authGroup.Post("/password/change", cfg.AuthMiddleware.RequireCustomer, cfg.Customers.ChangePassword)

	authGroup.Post("/password-reset", cfg.PasswordReset.Request)
	authGroup.Post("/password-reset/:token", cfg.PasswordReset.Confirm)

	adminGroup := app.Group("/admin/auth")
	adminGroup.Post("/login", cfg.Admin.Login)
	adminGroup.Post("/logout", cfg.Admin.Logout)
	adminGroup.Get("/me", cfg.AuthMiddleware.RequireAdmin, cfg.Admin.Me)
	adminGroup.Post("/password/change", cfg.AuthMiddleware.RequireAdmin, cfg.Customers.ChangePassword)
}
