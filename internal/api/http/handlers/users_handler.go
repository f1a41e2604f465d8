package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-service/internal/api/dto"
	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/service"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	rbac *service.RBACService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(rbac *service.RBACService) *UsersHandler {
	return &UsersHandler{rbac: rbac}
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.rbac.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewUserResponses(users)))
}

// Get handles GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.rbac.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(data(dto.NewUserResponse(user)))
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.rbac.CreateUser(c.UserContext(), service.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		RoleID:   req.RoleID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(data(dto.NewUserResponse(user)))
}

// Delete handles DELETE /api/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	actx, _ := auth.AuthContextFrom(c)
	actorID := ""
	if actx != nil {
		actorID = actx.UserID
	}
	if err := h.rbac.DeleteUser(c.UserContext(), actorID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(data(dto.MessageResponse{Message: "user deleted"}))
}
