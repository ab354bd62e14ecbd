package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/carolhungwt/physio-doctor-platform/internal/service/referral"
)

type ReferralHandler struct {
	svc referral.Service
}

func NewReferralHandler(svc referral.Service) *ReferralHandler {
	return &ReferralHandler{svc: svc}
}

type newPatientBody struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type createReferralBody struct {
	PatientID    *string         `json:"patientId"`
	NewPatient   *newPatientBody `json:"newPatient"`
	PhysioID     string          `json:"physioId"`
	Diagnosis    string          `json:"diagnosis"`
	Sessions     int             `json:"sessions"`
	Urgency      string          `json:"urgency"`
	ServiceType  string          `json:"serviceType"`
	Notes        string          `json:"notes"`
	ValidityDays *int            `json:"validityDays"`
}

// selector turns the two optional patient fields into exactly one
// PatientSelector. A nil selector with a nil error means neither was sent;
// the service reports that case.
func (b createReferralBody) selector() (referral.PatientSelector, error) {
	hasID := b.PatientID != nil && *b.PatientID != ""
	switch {
	case hasID && b.NewPatient != nil:
		return nil, errors.New("Provide either patientId or newPatient, not both")
	case hasID:
		id, err := uuid.Parse(*b.PatientID)
		if err != nil {
			return nil, errors.New("invalid patientId")
		}
		return referral.ExistingPatient{PatientID: id}, nil
	case b.NewPatient != nil:
		return referral.NewPatient{
			FirstName: b.NewPatient.FirstName,
			LastName:  b.NewPatient.LastName,
			Email:     b.NewPatient.Email,
			Phone:     b.NewPatient.Phone,
		}, nil
	default:
		return nil, nil
	}
}

// POST /api/v1/referrals
func (h *ReferralHandler) Create(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}

	var body createReferralBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	sel, err := body.selector()
	if err != nil {
		return badRequest(c, err.Error())
	}

	var physioID uuid.UUID
	if body.PhysioID != "" {
		if physioID, err = uuid.Parse(body.PhysioID); err != nil {
			return badRequest(c, "invalid physioId")
		}
	}

	out, err := h.svc.Create(c.Context(), uid, referral.CreateRequest{
		Patient:      sel,
		PhysioID:     physioID,
		Diagnosis:    body.Diagnosis,
		Sessions:     body.Sessions,
		Urgency:      body.Urgency,
		ServiceType:  body.ServiceType,
		Notes:        body.Notes,
		ValidityDays: body.ValidityDays,
	})
	if err != nil {
		return mapReferralError(c, err)
	}
	return created(c, out)
}

// GET /api/v1/referrals/:id
func (h *ReferralHandler) Get(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}
	id, valid := parseID(c, "id")
	if !valid {
		return badRequest(c, "invalid referral id")
	}

	out, err := h.svc.Get(c.Context(), id, uid)
	if err != nil {
		return mapReferralError(c, err)
	}
	return ok(c, out)
}

// PATCH /api/v1/referrals/:id/status
func (h *ReferralHandler) UpdateStatus(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}
	id, valid := parseID(c, "id")
	if !valid {
		return badRequest(c, "invalid referral id")
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Status == "" {
		return badRequest(c, "status is required")
	}

	out, err := h.svc.UpdateStatus(c.Context(), id, uid, body.Status)
	if err != nil {
		return mapReferralError(c, err)
	}
	return ok(c, out)
}

// GET /api/v1/referrals/doctor
func (h *ReferralHandler) ListByDoctor(c fiber.Ctx) error {
	return h.list(c, h.svc.ListByDoctor)
}

// GET /api/v1/referrals/patient
func (h *ReferralHandler) ListByPatient(c fiber.Ctx) error {
	return h.list(c, h.svc.ListByPatient)
}

// GET /api/v1/referrals/patient/active
func (h *ReferralHandler) ListActiveForPatient(c fiber.Ctx) error {
	return h.list(c, h.svc.ListActiveForPatient)
}

// GET /api/v1/referrals/physio
func (h *ReferralHandler) ListByPhysio(c fiber.Ctx) error {
	return h.list(c, h.svc.ListByPhysio)
}

func (h *ReferralHandler) list(c fiber.Ctx, fn func(context.Context, uuid.UUID) ([]*referral.Detail, error)) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}

	out, err := fn(c.Context(), uid)
	if err != nil {
		return mapReferralError(c, err)
	}
	return ok(c, out)
}

func mapReferralError(c fiber.Ctx, err error) error {
	var verr *referral.ValidationError
	switch {
	case errors.As(err, &verr):
		return badRequest(c, verr.Msg)
	case errors.Is(err, referral.ErrUnknownStatus),
		errors.Is(err, referral.ErrPhysioNotFound):
		return badRequest(c, err.Error())
	case errors.Is(err, referral.ErrNotDoctor),
		errors.Is(err, referral.ErrNotIssuingDoctor),
		errors.Is(err, referral.ErrAccessDenied):
		return forbidden(c, err.Error())
	case errors.Is(err, referral.ErrReferralNotFound),
		errors.Is(err, referral.ErrPatientNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, referral.ErrNoDoctorProfile),
		errors.Is(err, referral.ErrProfileIncomplete),
		errors.Is(err, referral.ErrNoPatientProfile),
		errors.Is(err, referral.ErrPatientRoleConflict),
		errors.Is(err, referral.ErrInvalidTransition):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}
