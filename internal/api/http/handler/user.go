package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/carolhungwt/physio-doctor-platform/internal/service/user"
)

type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// GET /api/v1/users?role=PHYSIO
func (h *UserHandler) List(c fiber.Ctx) error {
	role := c.Query("role")
	if role == "" {
		return badRequest(c, "role is required")
	}

	users, err := h.svc.ListByRole(c.Context(), role)
	if err != nil {
		return mapUserError(c, err)
	}

	return ok(c, users)
}

// GET /api/v1/users/:id
func (h *UserHandler) Get(c fiber.Ctx) error {
	id, valid := parseID(c, "id")
	if !valid {
		return badRequest(c, "invalid user id")
	}

	u, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return mapUserError(c, err)
	}

	return ok(c, u)
}

func mapUserError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, user.ErrInvalidRole):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}
