package router

import (
	"github.com/carolhungwt/physio-doctor-platform/internal/api/http/handler"
	"github.com/carolhungwt/physio-doctor-platform/pkg/authorize"
	"github.com/gofiber/fiber/v3"
)

func (r *Router) registerUserRoutes(
	api fiber.Router,
	h *handler.UserHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	users := api.Group("/users", authRequired)
	users.Get("/", requirePerm(authorize.ResourceUser, authorize.ActionList), h.List)
	users.Get("/:id", requirePerm(authorize.ResourceUser, authorize.ActionRead), h.Get)
}
