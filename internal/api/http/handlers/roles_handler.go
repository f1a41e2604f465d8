package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-service/internal/api/dto"
	"github.com/spec-kit/blog-service/internal/service"
)

// RolesHandler exposes role and permission administration.
type RolesHandler struct {
	rbac *service.RBACService
}

// NewRolesHandler constructs handler.
func NewRolesHandler(rbac *service.RBACService) *RolesHandler {
	return &RolesHandler{rbac: rbac}
}

// List handles GET /api/roles.
func (h *RolesHandler) List(c *fiber.Ctx) error {
	roles, err := h.rbac.ListRoles(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewRoleResponses(roles)))
}

// Get handles GET /api/roles/:id.
func (h *RolesHandler) Get(c *fiber.Ctx) error {
	role, err := h.rbac.GetRole(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewRoleResponse(&role.Role, role.Permissions)))
}

// Create handles POST /api/roles.
func (h *RolesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := h.rbac.CreateRole(c.UserContext(), service.RoleInput{Name: req.Name, Slug: req.Slug, Description: req.Description})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(data(dto.NewRoleResponse(role, nil)))
}

// Update handles PUT /api/roles/:id.
func (h *RolesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := h.rbac.UpdateRole(c.UserContext(), c.Params("id"), service.RoleInput{Name: req.Name, Slug: req.Slug, Description: req.Description})
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewRoleResponse(role, nil)))
}

// Delete handles DELETE /api/roles/:id.
func (h *RolesHandler) Delete(c *fiber.Ctx) error {
	if err := h.rbac.DeleteRole(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(data(dto.MessageResponse{Message: "role deleted"}))
}

// Permissions handles GET /api/roles/:id/permissions.
func (h *RolesHandler) Permissions(c *fiber.Ctx) error {
	perms, err := h.rbac.RolePermissions(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(data(perms))
}

// AssignPermission handles POST /api/roles/:id/permissions.
func (h *RolesHandler) AssignPermission(c *fiber.Ctx) error {
	var req dto.AssignPermissionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	assigned, err := h.rbac.AssignPermission(c.UserContext(), c.Params("id"), req.PermissionID)
	if err != nil {
		return err
	}
	msg := "permission assigned to role"
	if !assigned {
		msg = "permission already assigned to role"
	}
	return c.JSON(data(dto.MessageResponse{Message: msg}))
}

// RemovePermission handles DELETE /api/roles/:id/permissions/:permission_id.
func (h *RolesHandler) RemovePermission(c *fiber.Ctx) error {
	removed, err := h.rbac.RemovePermission(c.UserContext(), c.Params("id"), c.Params("permission_id"))
	if err != nil {
		return err
	}
	msg := "permission removed from role"
	if !removed {
		msg = "permission was not assigned to role"
	}
	return c.JSON(data(dto.MessageResponse{Message: msg}))
}

// ListPermissions handles GET /api/permissions.
func (h *RolesHandler) ListPermissions(c *fiber.Ctx) error {
	perms, err := h.rbac.ListPermissions(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewPermissionResponses(perms)))
}
