package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmops/identity-service/internal/api/http/handlers"
	"github.com/farmops/identity-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Gate           *auth.Gate
}

// RegisterRoutes wires HTTP routes. Everything under /admin passes the bearer
// middleware and then the authorization gate; there is no admin route
// reachable without an explicit allow rule.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/staff/login", cfg.Auth.StaffLogin)
	authGroup.Post("/customers/login", cfg.Auth.CustomerLogin)
	authGroup.Post("/customers/register", cfg.Auth.RegisterCustomer)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Post("/pin/change", cfg.Auth.ChangePIN)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle)

	accounts := admin.Group("/accounts", auth.RequireAccess(cfg.Gate, auth.ResourceStaffAccounts, auth.OpWrite))
	accounts.Post("", cfg.Admin.ProvisionStaff)
	accounts.Post("/:id/pin", cfg.Admin.ResetPIN)
	accounts.Post("/:id/status", cfg.Admin.UpdateStatus)
	accounts.Post("/:id/role", cfg.Admin.SetRole)
	accounts.Delete("/:id", cfg.Admin.PermanentDelete)

	admin.Get("/phones/:phone/availability",
		auth.RequireAccess(cfg.Gate, auth.ResourceStaffAccounts, auth.OpRead),
		cfg.Admin.PhoneAvailability)

	admin.Post("/customers/:id/approval",
		auth.RequireAccess(cfg.Gate, auth.ResourceCustomers, auth.OpWrite),
		cfg.Admin.CustomerApproval)
}
