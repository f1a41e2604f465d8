package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/blog-service/pkg/util/errorutil"
)

const authContextKey = "auth_context"

// Authenticator validates an access token and resolves the caller's context.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*AuthContext, error)
}

// AuthMiddleware validates bearer tokens and stores the authorization context.
type AuthMiddleware struct {
	authenticator Authenticator
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}
	actx, err := m.authenticator.Authenticate(c.UserContext(), token)
	if err != nil {
		return err
	}
	c.Locals(authContextKey, actx)
	return c.Next()
}

// Optional attaches the context when a valid token is present and otherwise
// continues anonymously. Store outages still fail the request.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return c.Next()
	}
	actx, err := m.authenticator.Authenticate(c.UserContext(), token)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeDependencyUnavailable) {
			return err
		}
		return c.Next()
	}
	c.Locals(authContextKey, actx)
	return c.Next()
}

// AuthContextFrom retrieves the authenticated caller.
func AuthContextFrom(c *fiber.Ctx) (*AuthContext, bool) {
	actx, ok := c.Locals(authContextKey).(*AuthContext)
	return actx, ok && actx != nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
