package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/carolhungwt/physio-doctor-platform/internal/service/patient"
)

type PatientHandler struct {
	svc patient.Service
}

func NewPatientHandler(svc patient.Service) *PatientHandler {
	return &PatientHandler{svc: svc}
}

// GET /api/v1/patients?search=&limit=
func (h *PatientHandler) Search(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest(c, "limit must be a positive integer")
		}
		limit = n
	}

	out, err := h.svc.Search(c.Context(), uid, c.Query("search"), limit)
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, out)
}

// GET /api/v1/patients/profile
func (h *PatientHandler) Profile(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}

	out, err := h.svc.Profile(c.Context(), uid)
	if err != nil {
		return mapPatientError(c, err)
	}
	return ok(c, out)
}

func mapPatientError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, patient.ErrAccessDenied):
		return forbidden(c, err.Error())
	default:
		return internalError(c, err)
	}
}
