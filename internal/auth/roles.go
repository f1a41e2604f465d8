package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/blog-service/pkg/util/errorutil"
)

// RequireAdmin ensures the caller holds the administrator role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, ok := AuthContextFrom(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !actx.IsAdmin() {
			return apperrors.NewForbidden("admin access required")
		}
		return c.Next()
	}
}

// RequirePermission ensures the caller holds permission.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, ok := AuthContextFrom(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !actx.HasPermission(permission) {
			return apperrors.NewForbidden(fmt.Sprintf("missing permission %s", permission))
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures some caller is attached to the request.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := AuthContextFrom(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
