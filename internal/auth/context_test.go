package auth

import (
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/blog-service/internal/domain"
)

func claimsFor(roleTag string) *Claims {
	return &Claims{
		Email:            "someone@test.com",
		RoleID:           "role-id",
		RoleTag:          roleTag,
		Kind:             domain.TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-id", ID: "jti"},
	}
}

func TestAdministratorHasEveryPermission(t *testing.T) {
	ctx := NewAuthContext(claimsFor(domain.RoleSlugAdmin), nil)

	if !ctx.IsAdmin() {
		t.Fatalf("expected admin authority")
	}
	for _, perm := range []string{"anything", domain.PermCategoriesDelete, domain.PermUsersDelete, ""} {
		if !ctx.HasPermission(perm) {
			t.Fatalf("admin denied %q", perm)
		}
	}
	if !ctx.CanPublish() || !ctx.CanDelete("tags") {
		t.Fatalf("admin predicates should all hold")
	}
	if ctx.Permissions == nil {
		t.Fatalf("permissions should be an empty list, not nil")
	}
}

func TestStandardAuthorityUsesExactMembership(t *testing.T) {
	writer := NewAuthContext(claimsFor(domain.RoleSlugWriter), []string{
		domain.PermPostsRead,
		domain.PermPostsCreate,
		domain.PermPostsUpdate,
	})

	if writer.IsAdmin() {
		t.Fatalf("writer must not be admin")
	}
	if !writer.CanCreate("posts") || !writer.CanRead("posts") || !writer.CanUpdate("posts") {
		t.Fatalf("writer should create/read/update posts")
	}
	if writer.CanDelete("posts") {
		t.Fatalf("writer must not delete posts")
	}
	if writer.CanPublish() {
		t.Fatalf("writer must not publish")
	}
	if writer.HasPermission("posts") || writer.HasPermission("POSTS:READ") {
		t.Fatalf("membership must be exact")
	}
}

func TestViewerScenario(t *testing.T) {
	ctx := NewAuthContext(claimsFor(domain.RoleSlugViewer), []string{"posts:read", "posts:create"})
	if ctx.HasPermission("posts:delete") {
		t.Fatalf("posts:delete should be denied")
	}
	if !ctx.CanCreate("posts") {
		t.Fatalf("posts:create should be granted")
	}
}

func TestNilContextDeniesEverything(t *testing.T) {
	var ctx *AuthContext
	if ctx.HasPermission(domain.PermPostsRead) || ctx.IsAdmin() {
		t.Fatalf("nil context must deny")
	}
	if (&AuthContext{}).HasPermission(domain.PermPostsRead) {
		t.Fatalf("context without authority must deny")
	}
}
