package domain

import "time"

// User is an account that can authenticate against the service.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	RoleID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// UserWithRole flattens the user's role for token issuance.
type UserWithRole struct {
	User
	RoleSlug string
	RoleName string
}
