package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/carolhungwt/physio-doctor-platform/internal/service/profile"
)

type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// ---------------------------------------------------------------------------
// Doctor
// ---------------------------------------------------------------------------

// POST /api/v1/profiles/doctor
func (h *ProfileHandler) CreateDoctor(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}
	var body profile.DoctorInput
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.CreateDoctor(c.Context(), uid, body)
	if err != nil {
		return mapProfileError(c, err)
	}
	return created(c, p)
}

// GET /api/v1/profiles/doctor
func (h *ProfileHandler) GetDoctor(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}

	p, err := h.svc.GetDoctor(c.Context(), uid)
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, p)
}

// PUT /api/v1/profiles/doctor
func (h *ProfileHandler) UpdateDoctor(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}
	var body profile.DoctorInput
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.UpdateDoctor(c.Context(), uid, body)
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, p)
}

// ---------------------------------------------------------------------------
// Physio
// ---------------------------------------------------------------------------

// POST /api/v1/profiles/physio
func (h *ProfileHandler) CreatePhysio(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}
	var body profile.PhysioInput
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.CreatePhysio(c.Context(), uid, body)
	if err != nil {
		return mapProfileError(c, err)
	}
	return created(c, p)
}

// GET /api/v1/profiles/physio
func (h *ProfileHandler) GetPhysio(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}

	p, err := h.svc.GetPhysio(c.Context(), uid)
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, p)
}

// PUT /api/v1/profiles/physio
func (h *ProfileHandler) UpdatePhysio(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}
	var body profile.PhysioInput
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.UpdatePhysio(c.Context(), uid, body)
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, p)
}

// ---------------------------------------------------------------------------
// Patient
// ---------------------------------------------------------------------------

// POST /api/v1/profiles/patient
func (h *ProfileHandler) CreatePatient(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}
	var body profile.PatientInput
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.CreatePatient(c.Context(), uid, body)
	if err != nil {
		return mapProfileError(c, err)
	}
	return created(c, p)
}

// GET /api/v1/profiles/patient
func (h *ProfileHandler) GetPatient(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}

	p, err := h.svc.GetPatient(c.Context(), uid)
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, p)
}

// PUT /api/v1/profiles/patient
func (h *ProfileHandler) UpdatePatient(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}
	var body profile.PatientInput
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.UpdatePatient(c.Context(), uid, body)
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, p)
}

func mapProfileError(c fiber.Ctx, err error) error {
	var verr *profile.ValidationError
	switch {
	case errors.As(err, &verr):
		return badRequest(c, verr.Msg)
	case errors.Is(err, profile.ErrNotDoctor),
		errors.Is(err, profile.ErrNotPhysio),
		errors.Is(err, profile.ErrNotPatient):
		return forbidden(c, err.Error())
	case errors.Is(err, profile.ErrDoctorProfileExists),
		errors.Is(err, profile.ErrPhysioProfileExists),
		errors.Is(err, profile.ErrPatientProfileExists),
		errors.Is(err, profile.ErrLicenseTakenByDoctor),
		errors.Is(err, profile.ErrLicenseTakenByPhysio),
		errors.Is(err, profile.ErrPhysioLicenseTakenByPhysio),
		errors.Is(err, profile.ErrPhysioLicenseTakenByDoctor):
		return conflict(c, err.Error())
	case errors.Is(err, profile.ErrUserNotFound),
		errors.Is(err, profile.ErrDoctorProfileNotFound),
		errors.Is(err, profile.ErrPhysioProfileNotFound),
		errors.Is(err, profile.ErrPatientProfileNotFound):
		return notFound(c, err.Error())
	default:
		return internalError(c, err)
	}
}
