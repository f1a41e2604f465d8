package domain

import "time"

// Role slugs seeded by migrations. Only RoleSlugAdmin carries meaning in code.
const (
	RoleSlugAdmin  = "admin"
	RoleSlugEditor = "editor"
	RoleSlugWriter = "writer"
	RoleSlugViewer = "viewer"
)

// Role groups permissions through the role_permissions association.
type Role struct {
	ID          string
	Name        string
	Slug        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission is a resource:action capability.
type Permission struct {
	ID          string
	Name        string
	Description *string
	Resource    string
	Action      string
	CreatedAt   time.Time
}

// Permission actions.
const (
	ActionRead    = "read"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionPublish = "publish"
)

// Permission names seeded by migrations.
const (
	PermPostsRead    = "posts:read"
	PermPostsCreate  = "posts:create"
	PermPostsUpdate  = "posts:update"
	PermPostsDelete  = "posts:delete"
	PermPostsPublish = "posts:publish"

	PermCategoriesRead   = "categories:read"
	PermCategoriesCreate = "categories:create"
	PermCategoriesUpdate = "categories:update"
	PermCategoriesDelete = "categories:delete"

	PermTagsRead   = "tags:read"
	PermTagsCreate = "tags:create"
	PermTagsUpdate = "tags:update"
	PermTagsDelete = "tags:delete"

	PermUsersRead   = "users:read"
	PermUsersCreate = "users:create"
	PermUsersUpdate = "users:update"
	PermUsersDelete = "users:delete"
)

// PermissionName joins resource and action using the resource:action convention.
func PermissionName(resource, action string) string {
	return resource + ":" + action
}
