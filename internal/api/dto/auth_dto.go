package dto

import (
	"time"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/domain"
)

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=256"`
}

// RefreshRequest payload for POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	RoleID    string    `json:"role_id"`
	RoleTag   string    `json:"role_tag"`
	RoleName  string    `json:"role_name"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}

// RefreshResponse is returned by a successful refresh.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// LogoutResponse reports how many tokens were revoked.
type LogoutResponse struct {
	Message       string `json:"message"`
	RevokedTokens int    `json:"revoked_tokens"`
}

// MeResponse is the caller's authorization context.
type MeResponse struct {
	*auth.AuthContext
	IsAdmin bool `json:"is_admin"`
}

// NewUserResponse maps a user with role to its public view.
func NewUserResponse(u *domain.UserWithRole) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		RoleID:    u.RoleID,
		RoleTag:   u.RoleSlug,
		RoleName:  u.RoleName,
		CreatedAt: u.CreatedAt,
	}
}
