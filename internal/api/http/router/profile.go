package router

import (
	"github.com/carolhungwt/physio-doctor-platform/internal/api/http/handler"
	"github.com/carolhungwt/physio-doctor-platform/pkg/authorize"
	"github.com/gofiber/fiber/v3"
)

func (r *Router) registerProfileRoutes(
	api fiber.Router,
	h *handler.ProfileHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	profiles := api.Group("/profiles", authRequired)

	doctor := profiles.Group("/doctor", requirePerm(authorize.ResourceDoctorProfile, authorize.ActionManage))
	doctor.Post("/", h.CreateDoctor)
	doctor.Get("/", h.GetDoctor)
	doctor.Put("/", h.UpdateDoctor)

	physio := profiles.Group("/physio", requirePerm(authorize.ResourcePhysioProfile, authorize.ActionManage))
	physio.Post("/", h.CreatePhysio)
	physio.Get("/", h.GetPhysio)
	physio.Put("/", h.UpdatePhysio)

	patient := profiles.Group("/patient", requirePerm(authorize.ResourcePatientProfile, authorize.ActionManage))
	patient.Post("/", h.CreatePatient)
	patient.Get("/", h.GetPatient)
	patient.Put("/", h.UpdatePatient)
}
