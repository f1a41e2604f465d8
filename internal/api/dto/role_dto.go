package dto

import (
	"time"

	"github.com/spec-kit/blog-service/internal/domain"
)

// CreateRoleRequest payload for POST /api/roles.
type CreateRoleRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Slug        string  `json:"slug" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// UpdateRoleRequest payload for PUT /api/roles/:id.
type UpdateRoleRequest struct {
	Name        string  `json:"name" validate:"omitempty,max=100"`
	Slug        string  `json:"slug" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// AssignPermissionRequest payload for POST /api/roles/:id/permissions.
type AssignPermissionRequest struct {
	PermissionID string `json:"permission_id" validate:"required,uuid"`
}

// RoleResponse is the public view of a role.
type RoleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PermissionResponse is the public view of a permission.
type PermissionResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Resource    string  `json:"resource"`
	Action      string  `json:"action"`
	Description *string `json:"description,omitempty"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewRoleResponse maps a role.
func NewRoleResponse(r *domain.Role, permissions []string) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Permissions: permissions,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// NewRoleResponses maps a list of roles.
func NewRoleResponses(roles []domain.Role) []RoleResponse {
	out := make([]RoleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, NewRoleResponse(&roles[i], nil))
	}
	return out
}

// NewPermissionResponses maps the permission catalogue.
func NewPermissionResponses(perms []domain.Permission) []PermissionResponse {
	out := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, PermissionResponse{
			ID:          p.ID,
			Name:        p.Name,
			Resource:    p.Resource,
			Action:      p.Action,
			Description: p.Description,
		})
	}
	return out
}
