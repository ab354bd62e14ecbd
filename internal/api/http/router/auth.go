package router

import (
	"github.com/carolhungwt/physio-doctor-platform/internal/api/http/handler"
	"github.com/gofiber/fiber/v3"
)

func (r *Router) registerAuthRoutes(api fiber.Router, h *handler.AuthHandler, authRequired fiber.Handler) {
	group := api.Group("/auth")
	group.Post("/register", h.Register)
	group.Post("/login", h.Login)
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", authRequired, h.Logout)
	group.Get("/me", authRequired, h.Me)
}
