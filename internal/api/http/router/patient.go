package router

import (
	"github.com/carolhungwt/physio-doctor-platform/internal/api/http/handler"
	"github.com/carolhungwt/physio-doctor-platform/pkg/authorize"
	"github.com/gofiber/fiber/v3"
)

func (r *Router) registerPatientRoutes(
	api fiber.Router,
	h *handler.PatientHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	patients := api.Group("/patients", authRequired)
	patients.Get("/", requirePerm(authorize.ResourcePatient, authorize.ActionList), h.Search)
	patients.Get("/profile", requirePerm(authorize.ResourcePatientProfile, authorize.ActionRead), h.Profile)
}
