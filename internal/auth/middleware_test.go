package auth

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-service/internal/domain"
	apperrors "github.com/spec-kit/blog-service/pkg/util/errorutil"
)

type fakeAuthenticator map[string]*AuthContext

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (*AuthContext, error) {
	switch token {
	case "outage":
		return nil, apperrors.NewDependencyUnavailable("token store", errors.New("down"))
	case "revoked":
		return nil, apperrors.NewTokenRevoked(ErrTokenRevoked)
	}
	if actx, ok := f[token]; ok {
		return actx, nil
	}
	return nil, apperrors.NewTokenInvalid(ErrTokenInvalid)
}

func newGuardedApp(authenticator Authenticator) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).SendString(de.Code)
	}})
	mw := NewAuthMiddleware(authenticator)

	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		actx, _ := AuthContextFrom(c)
		return c.SendString(actx.UserID)
	})
	app.Get("/admin", mw.Handle, RequireAdmin(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Delete("/posts", mw.Handle, RequirePermission(domain.PermPostsDelete), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/feed", mw.Optional, func(c *fiber.Ctx) error {
		if actx, ok := AuthContextFrom(c); ok {
			return c.SendString(actx.UserID)
		}
		return c.SendString("anonymous")
	})
	app.Get("/private", mw.Optional, RequireAuthenticated(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	return app
}

func do(t *testing.T, app *fiber.App, method, path, authorization string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware(t *testing.T) {
	admin := NewAuthContext(&Claims{RoleTag: domain.RoleSlugAdmin}, nil)
	admin.UserID = "admin-1"
	writer := NewAuthContext(&Claims{RoleTag: domain.RoleSlugWriter}, []string{domain.PermPostsCreate})
	writer.UserID = "writer-1"
	app := newGuardedApp(fakeAuthenticator{"admin-token": admin, "writer-token": writer})

	cases := []struct {
		name, method, path, header string
		status                     int
		body                       string
	}{
		{"missing header", "GET", "/me", "", 401, apperrors.CodeUnauthorized},
		{"wrong scheme", "GET", "/me", "Basic abc", 401, apperrors.CodeUnauthorized},
		{"empty bearer", "GET", "/me", "Bearer ", 401, apperrors.CodeUnauthorized},
		{"invalid token", "GET", "/me", "Bearer junk", 401, apperrors.CodeTokenInvalid},
		{"revoked token", "GET", "/me", "Bearer revoked", 401, apperrors.CodeTokenRevoked},
		{"store outage", "GET", "/me", "Bearer outage", 503, apperrors.CodeDependencyUnavailable},
		{"valid token", "GET", "/me", "bearer writer-token", 200, "writer-1"},
		{"admin route as writer", "GET", "/admin", "Bearer writer-token", 403, apperrors.CodeForbidden},
		{"admin route as admin", "GET", "/admin", "Bearer admin-token", 204, ""},
		{"permission denied", "DELETE", "/posts", "Bearer writer-token", 403, apperrors.CodeForbidden},
		{"admin implies permission", "DELETE", "/posts", "Bearer admin-token", 204, ""},
		{"optional anonymous", "GET", "/feed", "", 200, "anonymous"},
		{"optional invalid token", "GET", "/feed", "Bearer junk", 200, "anonymous"},
		{"optional valid token", "GET", "/feed", "Bearer admin-token", 200, "admin-1"},
		{"optional outage", "GET", "/feed", "Bearer outage", 503, apperrors.CodeDependencyUnavailable},
		{"optional then required", "GET", "/private", "", 401, apperrors.CodeUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := do(t, app, tc.method, tc.path, tc.header)
			if status != tc.status || body != tc.body {
				t.Fatalf("got %d %q, want %d %q", status, body, tc.status, tc.body)
			}
		})
	}
}
