package dto

import "github.com/spec-kit/blog-service/internal/domain"

// CreateUserRequest payload for POST /api/users.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Password string `json:"password" validate:"required,min=8,max=256"`
	RoleID   string `json:"role_id" validate:"omitempty,uuid"`
}

// NewUserResponses maps a list of users.
func NewUserResponses(users []domain.UserWithRole) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
