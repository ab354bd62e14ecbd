package router

import (
	"github.com/carolhungwt/physio-doctor-platform/internal/api/http/handler"
	"github.com/carolhungwt/physio-doctor-platform/pkg/authorize"
	"github.com/gofiber/fiber/v3"
)

func (r *Router) registerReferralRoutes(
	api fiber.Router,
	h *handler.ReferralHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	referrals := api.Group("/referrals", authRequired)

	// Static paths before /:id
	referrals.Get("/doctor", requirePerm(authorize.ResourceReferral, authorize.ActionList), h.ListByDoctor)
	referrals.Get("/patient", requirePerm(authorize.ResourceReferral, authorize.ActionList), h.ListByPatient)
	referrals.Get("/patient/active", requirePerm(authorize.ResourceReferral, authorize.ActionList), h.ListActiveForPatient)
	referrals.Get("/physio", requirePerm(authorize.ResourceReferral, authorize.ActionList), h.ListByPhysio)

	referrals.Post("/", requirePerm(authorize.ResourceReferral, authorize.ActionCreate), h.Create)
	referrals.Get("/:id", requirePerm(authorize.ResourceReferral, authorize.ActionRead), h.Get)
	referrals.Patch("/:id/status", requirePerm(authorize.ResourceReferral, authorize.ActionUpdate), h.UpdateStatus)
}
