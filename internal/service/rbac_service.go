package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/repository"
	apperrors "github.com/spec-kit/blog-service/pkg/util/errorutil"
)

// Postgres error codes mapped to domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

var builtinRoles = map[string]struct{}{
	domain.RoleSlugAdmin:  {},
	domain.RoleSlugEditor: {},
	domain.RoleSlugWriter: {},
	domain.RoleSlugViewer: {},
}

// CreateUserInput carries an account to create. An empty RoleID selects the viewer role.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	RoleID   string
}

// RoleInput carries role attributes. An empty Slug is derived from Name.
type RoleInput struct {
	Name        string
	Slug        string
	Description *string
}

// RoleWithPermissions pairs a role with its permission names.
type RoleWithPermissions struct {
	domain.Role
	Permissions []string
}

// RBACService administers users, roles and role permissions.
type RBACService struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	tokens repository.TokenRepository
	hasher *auth.PasswordHasher
	events events.Dispatcher
	logger *zap.Logger
}

// RBACDependencies encapsulates collaborators of the RBAC service.
type RBACDependencies struct {
	UserRepo   repository.UserRepository
	RoleRepo   repository.RoleRepository
	TokenRepo  repository.TokenRepository
	Hasher     *auth.PasswordHasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewRBACService builds the service.
func NewRBACService(deps RBACDependencies) *RBACService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RBACService{
		users:  deps.UserRepo,
		roles:  deps.RoleRepo,
		tokens: deps.TokenRepo,
		hasher: deps.Hasher,
		events: deps.Dispatcher,
		logger: logger,
	}
}

// CreateUser hashes the password and stores a new account.
func (s *RBACService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.UserWithRole, error) {
	roleID := in.RoleID
	if roleID == "" {
		viewer, err := s.roles.GetBySlug(ctx, domain.RoleSlugViewer)
		if err != nil {
			return nil, mapStoreError("role", err)
		}
		roleID = viewer.ID
	} else if err := validateID("role_id", roleID); err != nil {
		return nil, err
	} else if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		return nil, mapStoreError("role", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid password", map[string]any{"password": err.Error()})
	}

	user := &domain.User{
		Email:        normalizeEmail(in.Email),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		RoleID:       roleID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapStoreError("user", err)
	}
	created, err := s.users.GetByIDWithRole(ctx, user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return created, nil
}

// ListUsers returns all active accounts.
func (s *RBACService) ListUsers(ctx context.Context) ([]domain.UserWithRole, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, mapStoreError("user", err)
	}
	return users, nil
}

// GetUser returns one account.
func (s *RBACService) GetUser(ctx context.Context, id string) (*domain.UserWithRole, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	user, err := s.users.GetByIDWithRole(ctx, id)
	if err != nil {
		return nil, mapStoreError("user", err)
	}
	return user, nil
}

// DeleteUser soft-deletes an account and revokes its sessions. Callers cannot delete themselves.
func (s *RBACService) DeleteUser(ctx context.Context, actorID, id string) error {
	if err := validateID("id", id); err != nil {
		return err
	}
	if actorID == id {
		return apperrors.NewValidationError("cannot delete yourself", nil)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return mapStoreError("user", err)
	}

	revoked, err := s.tokens.RevokeAll(ctx, id)
	if err != nil {
		return apperrors.NewDependencyUnavailable("token store", err)
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("actor_id", actorID), zap.Int("revoked_tokens", revoked))
	if s.events != nil {
		event := events.NewEvent(events.EventUserDeleted, id, time.Now(), events.LogoutPayload{RevokedTokens: revoked})
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("audit event delivery failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return nil
}

// ListRoles returns every active role.
func (s *RBACService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, mapStoreError("role", err)
	}
	return roles, nil
}

// GetRole returns a role with its permissions.
func (s *RBACService) GetRole(ctx context.Context, id string) (*RoleWithPermissions, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError("role", err)
	}
	permissions, err := s.roles.GetPermissions(ctx, id)
	if err != nil {
		return nil, mapStoreError("role", err)
	}
	return &RoleWithPermissions{Role: *role, Permissions: permissions}, nil
}

// CreateRole stores a role, deriving its slug from the name when absent.
func (s *RBACService) CreateRole(ctx context.Context, in RoleInput) (*domain.Role, error) {
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}
	if slug == "" {
		return nil, apperrors.NewValidationError("role slug is empty", map[string]any{"name": in.Name})
	}
	if err := s.ensureSlugFree(ctx, slug, ""); err != nil {
		return nil, err
	}

	role := &domain.Role{Name: strings.TrimSpace(in.Name), Slug: slug, Description: in.Description}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, mapStoreError("role", err)
	}
	return role, nil
}

// UpdateRole changes a role's attributes. Empty fields keep their value.
func (s *RBACService) UpdateRole(ctx context.Context, id string, in RoleInput) (*domain.Role, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError("role", err)
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		role.Name = name
	}
	if slug := strings.TrimSpace(in.Slug); slug != "" && slug != role.Slug {
		if _, builtin := builtinRoles[role.Slug]; builtin {
			return nil, apperrors.NewValidationError("cannot rename built-in role slug", map[string]any{"slug": role.Slug})
		}
		if err := s.ensureSlugFree(ctx, slug, role.ID); err != nil {
			return nil, err
		}
		role.Slug = slug
	}
	if in.Description != nil {
		role.Description = in.Description
	}
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, mapStoreError("role", err)
	}
	return role, nil
}

// DeleteRole removes a custom role that no active user holds. Built-in roles cannot be deleted.
func (s *RBACService) DeleteRole(ctx context.Context, id string) error {
	if err := validateID("id", id); err != nil {
		return err
	}
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return mapStoreError("role", err)
	}
	if _, builtin := builtinRoles[role.Slug]; builtin {
		return apperrors.NewValidationError("cannot delete built-in roles", map[string]any{"slug": role.Slug})
	}
	if err := s.roles.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRoleInUse) {
			return apperrors.NewConflict("role is assigned to users", map[string]any{"role_id": id})
		}
		return mapStoreError("role", err)
	}
	return nil
}

// RolePermissions returns the permission names of a role.
func (s *RBACService) RolePermissions(ctx context.Context, roleID string) ([]string, error) {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

// ListPermissions returns the permission catalogue.
func (s *RBACService) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	permissions, err := s.roles.ListPermissions(ctx)
	if err != nil {
		return nil, mapStoreError("permission", err)
	}
	return permissions, nil
}

// AssignPermission grants a permission to a role. It reports false if it was already granted.
func (s *RBACService) AssignPermission(ctx context.Context, roleID, permissionID string) (bool, error) {
	if err := s.checkGrantIDs(ctx, roleID, permissionID); err != nil {
		return false, err
	}
	assigned, err := s.roles.AssignPermission(ctx, roleID, permissionID)
	if err != nil {
		return false, mapStoreError("permission", err)
	}
	return assigned, nil
}

// RemovePermission revokes a permission from a role. It reports false if it was not granted.
func (s *RBACService) RemovePermission(ctx context.Context, roleID, permissionID string) (bool, error) {
	if err := s.checkGrantIDs(ctx, roleID, permissionID); err != nil {
		return false, err
	}
	removed, err := s.roles.RemovePermission(ctx, roleID, permissionID)
	if err != nil {
		return false, mapStoreError("permission", err)
	}
	return removed, nil
}

func (s *RBACService) checkGrantIDs(ctx context.Context, roleID, permissionID string) error {
	if err := validateID("role_id", roleID); err != nil {
		return err
	}
	if err := validateID("permission_id", permissionID); err != nil {
		return err
	}
	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		return mapStoreError("role", err)
	}
	return nil
}

func (s *RBACService) ensureSlugFree(ctx context.Context, slug, selfID string) error {
	existing, err := s.roles.GetBySlug(ctx, slug)
	switch {
	case err == nil && existing.ID != selfID:
		return apperrors.NewConflict("role slug already exists", map[string]any{"slug": slug})
	case err != nil && !errors.Is(err, pgx.ErrNoRows):
		return mapStoreError("role", err)
	}
	return nil
}

// Slugify lowercases text and joins its alphanumeric runs with hyphens.
func Slugify(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "-")
}

func validateID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewValidationError("invalid identifier", map[string]any{field: id})
	}
	return nil
}

// mapStoreError translates repository errors into domain errors.
func mapStoreError(resource string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperrors.NewConflict(resource+" already exists", map[string]any{"constraint": pgErr.ConstraintName})
		case pgForeignKeyViolation:
			return apperrors.NewNotFound("referenced "+resource, map[string]any{"constraint": pgErr.ConstraintName})
		case pgInvalidText:
			return apperrors.NewValidationError("invalid identifier", nil)
		}
		return apperrors.NewInternalError(err)
	}
	return apperrors.NewDependencyUnavailable("database", err)
}
