package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/repository"
	apperrors "github.com/spec-kit/blog-service/pkg/util/errorutil"
)

// AccessService turns validated claims into an authorization context.
// Permissions are read on every call; nothing is cached between requests.
type AccessService struct {
	roles repository.RoleRepository
}

// NewAccessService builds the service.
func NewAccessService(roles repository.RoleRepository) *AccessService {
	return &AccessService{roles: roles}
}

// Resolve loads the permission set of the claims' role.
func (s *AccessService) Resolve(ctx context.Context, claims *auth.Claims) (*auth.AuthContext, error) {
	if claims == nil {
		return nil, apperrors.NewTokenInvalid(auth.ErrTokenInvalid)
	}
	permissions, err := s.roles.GetPermissions(ctx, claims.RoleID)
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("role store", err)
	}
	return auth.NewAuthContext(claims, permissions), nil
}

// Authorize fails with FORBIDDEN unless the context holds permission.
func (s *AccessService) Authorize(actx *auth.AuthContext, permission string) error {
	if actx.HasPermission(permission) {
		return nil
	}
	return apperrors.NewForbidden(fmt.Sprintf("missing permission %s", permission))
}
