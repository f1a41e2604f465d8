package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/blog-service/internal/api/http/handlers"
	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Roles          *handlers.RolesHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   *IPRateLimiter
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api")
	requireAuth := cfg.AuthMiddleware.Handle

	authGroup := api.Group("/auth")
	login := []fiber.Handler{cfg.Auth.Login}
	if cfg.LoginLimiter != nil {
		login = append([]fiber.Handler{cfg.LoginLimiter.Handler()}, login...)
	}
	authGroup.Post("/login", login...)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", requireAuth, cfg.Auth.Logout)
	authGroup.Get("/me", requireAuth, cfg.Auth.Me)

	users := api.Group("/users", requireAuth)
	users.Get("/", auth.RequirePermission(domain.PermUsersRead), cfg.Users.List)
	users.Post("/", auth.RequirePermission(domain.PermUsersCreate), cfg.Users.Create)
	users.Get("/:id", auth.RequirePermission(domain.PermUsersRead), cfg.Users.Get)
	users.Delete("/:id", auth.RequirePermission(domain.PermUsersDelete), cfg.Users.Delete)

	roles := api.Group("/roles", requireAuth, auth.RequireAdmin())
	roles.Get("/", cfg.Roles.List)
	roles.Get("/:id", cfg.Roles.Get)
	roles.Get("/:id/permissions", cfg.Roles.Permissions)
	roles.Post("/", cfg.Roles.Create)
	roles.Put("/:id", cfg.Roles.Update)
	roles.Delete("/:id", cfg.Roles.Delete)
	roles.Post("/:id/permissions", cfg.Roles.AssignPermission)
	roles.Delete("/:id/permissions/:permission_id", cfg.Roles.RemovePermission)

	api.Get("/permissions", requireAuth, auth.RequireAdmin(), cfg.Roles.ListPermissions)
}
