package auth

import (
	"github.com/spec-kit/blog-service/internal/domain"
)

// Authority is what a role is allowed to do. It is either Administrator or Standard.
type Authority interface {
	authority()
}

// Administrator implies every permission.
type Administrator struct{}

// Standard grants exactly the listed permissions.
type Standard struct {
	permissions map[string]struct{}
}

func (Administrator) authority() {}
func (Standard) authority()      {}

// NewAuthority derives the authority of a role from its tag and permission set.
func NewAuthority(roleTag string, permissions []string) Authority {
	if roleTag == domain.RoleSlugAdmin {
		return Administrator{}
	}
	set := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return Standard{permissions: set}
}

// AuthContext is the per-request identity and permission set of a validated caller.
type AuthContext struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	RoleID      string   `json:"role_id"`
	RoleTag     string   `json:"role_tag"`
	Permissions []string `json:"permissions"`

	Authority Authority `json:"-"`
}

// NewAuthContext builds the context for claims with the role's resolved permissions.
func NewAuthContext(claims *Claims, permissions []string) *AuthContext {
	if permissions == nil {
		permissions = []string{}
	}
	return &AuthContext{
		UserID:      claims.UserID(),
		Email:       claims.Email,
		RoleID:      claims.RoleID,
		RoleTag:     claims.RoleTag,
		Permissions: permissions,
		Authority:   NewAuthority(claims.RoleTag, permissions),
	}
}

// IsAdmin reports whether the caller holds the administrator role.
func (c *AuthContext) IsAdmin() bool {
	if c == nil {
		return false
	}
	_, ok := c.Authority.(Administrator)
	return ok
}

// HasPermission reports whether the caller may perform permission.
func (c *AuthContext) HasPermission(permission string) bool {
	if c == nil {
		return false
	}
	switch a := c.Authority.(type) {
	case Administrator:
		return true
	case Standard:
		_, ok := a.permissions[permission]
		return ok
	default:
		return false
	}
}

func (c *AuthContext) CanCreate(resource string) bool {
	return c.HasPermission(domain.PermissionName(resource, domain.ActionCreate))
}

func (c *AuthContext) CanRead(resource string) bool {
	return c.HasPermission(domain.PermissionName(resource, domain.ActionRead))
}

func (c *AuthContext) CanUpdate(resource string) bool {
	return c.HasPermission(domain.PermissionName(resource, domain.ActionUpdate))
}

func (c *AuthContext) CanDelete(resource string) bool {
	return c.HasPermission(domain.PermissionName(resource, domain.ActionDelete))
}

// CanPublish reports whether the caller may publish posts.
func (c *AuthContext) CanPublish() bool {
	return c.HasPermission(domain.PermPostsPublish)
}
