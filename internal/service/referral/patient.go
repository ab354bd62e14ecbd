package referral

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
	"github.com/carolhungwt/physio-doctor-platform/pkg/util/password"
	"github.com/carolhungwt/physio-doctor-platform/pkg/util/phone"
)

// createInput is a CreateRequest after validation and normalisation.
type createInput struct {
	patient      PatientSelector
	physioID     uuid.UUID
	diagnosis    string
	sessions     int
	urgency      repo.Urgency
	serviceType  *repo.ReferralServiceType
	notes        *string
	validityDays int
}

func (s *referralService) validate(req CreateRequest) (*createInput, error) {
	in := &createInput{
		physioID:     req.PhysioID,
		diagnosis:    strings.TrimSpace(req.Diagnosis),
		sessions:     req.Sessions,
		urgency:      repo.UrgencyRoutine,
		validityDays: s.cfg.DefaultValidityDays,
	}

	switch p := req.Patient.(type) {
	case ExistingPatient:
		if p.PatientID == uuid.Nil {
			return nil, invalid("patientId is required")
		}
		in.patient = p
	case NewPatient:
		np, err := s.normalizeNewPatient(p)
		if err != nil {
			return nil, err
		}
		in.patient = np
	default:
		return nil, invalid("Either patientId or newPatient is required")
	}

	if in.physioID == uuid.Nil {
		return nil, invalid("physioId is required")
	}
	if in.diagnosis == "" {
		return nil, invalid("diagnosis is required")
	}
	if in.sessions < 1 {
		return nil, invalid("sessions must be at least 1")
	}

	if u := strings.TrimSpace(req.Urgency); u != "" {
		in.urgency = repo.Urgency(strings.ToUpper(u))
		if !in.urgency.Valid() {
			return nil, invalid("urgency must be one of ROUTINE, URGENT, EMERGENCY")
		}
	}
	if st := strings.TrimSpace(req.ServiceType); st != "" {
		t := repo.ReferralServiceType(strings.ToUpper(st))
		if !t.Valid() {
			return nil, invalid("serviceType must be CLINIC or HOME_VISIT")
		}
		in.serviceType = &t
	}
	if n := strings.TrimSpace(req.Notes); n != "" {
		in.notes = &n
	}

	if req.ValidityDays != nil {
		in.validityDays = *req.ValidityDays
	}
	if in.validityDays < 1 {
		return nil, invalid("validityDays must be at least 1")
	}
	if limit := s.cfg.MaxValidityDays; limit > 0 && in.validityDays > limit {
		return nil, invalid(fmt.Sprintf("validityDays must not exceed %d", limit))
	}
	return in, nil
}

// normalizeNewPatient lower-cases the email and rewrites the phone to E.164
// so that lookups and unique indexes compare one form.
func (s *referralService) normalizeNewPatient(p NewPatient) (NewPatient, error) {
	out := NewPatient{
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
	}
	if out.FirstName == "" || out.LastName == "" {
		return out, invalid("newPatient.firstName and newPatient.lastName are required")
	}

	if e := strings.TrimSpace(p.Email); e != "" {
		addr, err := mail.ParseAddress(e)
		if err != nil || addr.Address != e {
			return out, invalid("newPatient.email is not a valid email address")
		}
		out.Email = strings.ToLower(e)
	}
	if ph := strings.TrimSpace(p.Phone); ph != "" {
		norm, err := phone.Normalize(ph, s.cfg.DefaultPhoneRegion)
		if err != nil {
			return out, invalid("newPatient.phone is not a valid phone number")
		}
		out.Phone = norm
	}
	if out.Email == "" && out.Phone == "" {
		return out, invalid("newPatient requires an email or a phone number")
	}
	return out, nil
}

// resolvePatient returns the patient the referral is issued to and whether
// this call created it.
func (s *referralService) resolvePatient(ctx context.Context, sel PatientSelector) (*repo.User, bool, error) {
	switch p := sel.(type) {
	case ExistingPatient:
		u, err := s.existingPatient(ctx, p.PatientID)
		return u, false, err
	case NewPatient:
		return s.findOrCreatePatient(ctx, p)
	}
	return nil, false, invalid("Either patientId or newPatient is required")
}

func (s *referralService) existingPatient(ctx context.Context, id uuid.UUID) (*repo.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil && !repo.IsNotFound(err) {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if u == nil || u.Role != repo.RolePatient {
		return nil, ErrPatientNotFound
	}
	if _, err := s.store.GetPatientProfile(ctx, id); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNoPatientProfile
		}
		return nil, fmt.Errorf("load patient profile: %w", err)
	}
	return u, nil
}

// findOrCreatePatient reuses an identity matching the email, then the phone.
// A unique-index conflict on insert means a concurrent request created the
// same patient first, so the lookup is repeated once.
func (s *referralService) findOrCreatePatient(ctx context.Context, np NewPatient) (*repo.User, bool, error) {
	u, err := s.matchPatient(ctx, np)
	if err != nil {
		return nil, false, err
	}
	if u != nil {
		if err := s.ensurePatientProfile(ctx, u.ID); err != nil {
			return nil, false, err
		}
		return u, false, nil
	}

	id := repo.NewID()
	email := np.Email
	if email == "" {
		email = fmt.Sprintf("patient+%s@%s", id, s.cfg.PlaceholderEmailDomain)
	}
	hash, err := s.hasher.Hash(password.Generate(s.cfg.TempPasswordLength))
	if err != nil {
		return nil, false, fmt.Errorf("hash temporary password: %w", err)
	}

	u = &repo.User{
		ID:           id,
		Email:        &email,
		PasswordHash: hash,
		Role:         repo.RolePatient,
		FirstName:    &np.FirstName,
		LastName:     &np.LastName,
		IsActive:     true,
	}
	if np.Phone != "" {
		ph := np.Phone
		u.Phone = &ph
	}

	if _, err := s.store.CreatePatient(ctx, u); err != nil {
		if !repo.IsConstraint(err) {
			return nil, false, fmt.Errorf("create patient: %w", err)
		}
		existing, lerr := s.matchPatient(ctx, np)
		if lerr != nil {
			return nil, false, lerr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("create patient: %w", err)
		}
		if err := s.ensurePatientProfile(ctx, existing.ID); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return u, true, nil
}

// matchPatient returns nil, nil when no identity matches.
func (s *referralService) matchPatient(ctx context.Context, np NewPatient) (*repo.User, error) {
	lookups := []struct {
		key string
		get func(context.Context, string) (*repo.User, error)
	}{
		{np.Email, s.store.GetUserByEmail},
		{np.Phone, s.store.GetUserByPhone},
	}
	for _, l := range lookups {
		if l.key == "" {
			continue
		}
		u, err := l.get(ctx, l.key)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("look up patient: %w", err)
		}
		if u.Role != repo.RolePatient {
			return nil, ErrPatientRoleConflict
		}
		return u, nil
	}
	return nil, nil
}

// ensurePatientProfile backfills the profile row for a patient account that
// was registered without one.
func (s *referralService) ensurePatientProfile(ctx context.Context, userID uuid.UUID) error {
	_, err := s.store.GetPatientProfile(ctx, userID)
	if err == nil {
		return nil
	}
	if !repo.IsNotFound(err) {
		return fmt.Errorf("get patient profile: %w", err)
	}
	if err := s.store.CreatePatientProfile(ctx, &repo.PatientProfile{UserID: userID}); err != nil && !repo.IsConstraint(err) {
		return fmt.Errorf("create patient profile: %w", err)
	}
	return nil
}
