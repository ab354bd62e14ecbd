package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
)

const dateLayout = "2006-01-02"

var genders = map[string]bool{"MALE": true, "FEMALE": true, "OTHER": true}

// PatientInput fields are optional. On update a nil field keeps the stored
// value.
type PatientInput struct {
	DateOfBirth           *string `json:"dateOfBirth"`
	Gender                *string `json:"gender"`
	Address               *string `json:"address"`
	EmergencyContactName  *string `json:"emergencyContactName"`
	EmergencyContactPhone *string `json:"emergencyContactPhone"`
	MedicalHistory        *string `json:"medicalHistory"`
	Allergies             *string `json:"allergies"`
	CurrentMedications    *string `json:"currentMedications"`
}

type PatientView struct {
	ID                    uuid.UUID  `json:"id"`
	UserID                uuid.UUID  `json:"userId"`
	DateOfBirth           *time.Time `json:"dateOfBirth"`
	Gender                *string    `json:"gender"`
	Address               *string    `json:"address"`
	EmergencyContactName  *string    `json:"emergencyContactName"`
	EmergencyContactPhone *string    `json:"emergencyContactPhone"`
	MedicalHistory        *string    `json:"medicalHistory"`
	Allergies             *string    `json:"allergies"`
	CurrentMedications    *string    `json:"currentMedications"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

func PatientViewOf(p *repo.PatientProfile) *PatientView {
	return &PatientView{
		ID:                    p.ID,
		UserID:                p.UserID,
		DateOfBirth:           p.DateOfBirth,
		Gender:                p.Gender,
		Address:               p.Address,
		EmergencyContactName:  p.EmergencyContactName,
		EmergencyContactPhone: p.EmergencyContactPhone,
		MedicalHistory:        p.MedicalHistory,
		Allergies:             p.Allergies,
		CurrentMedications:    p.CurrentMedications,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func (s *profileService) CreatePatient(ctx context.Context, userID uuid.UUID, in PatientInput) (*PatientView, error) {
	if _, err := s.requireRole(ctx, userID, repo.RolePatient, ErrNotPatient); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPatientProfile(ctx, userID); err == nil {
		return nil, ErrPatientProfileExists
	} else if !repo.IsNotFound(err) {
		return nil, fmt.Errorf("load patient profile: %w", err)
	}

	p := &repo.PatientProfile{UserID: userID}
	if err := applyPatient(p, in); err != nil {
		return nil, err
	}
	if err := s.store.CreatePatientProfile(ctx, p); err != nil {
		if repo.IsConstraint(err) {
			return nil, ErrPatientProfileExists
		}
		return nil, fmt.Errorf("create patient profile: %w", err)
	}
	return PatientViewOf(p), nil
}

func (s *profileService) GetPatient(ctx context.Context, userID uuid.UUID) (*PatientView, error) {
	p, err := s.store.GetPatientProfile(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPatientProfileNotFound
		}
		return nil, fmt.Errorf("load patient profile: %w", err)
	}
	return PatientViewOf(p), nil
}

func (s *profileService) UpdatePatient(ctx context.Context, userID uuid.UUID, in PatientInput) (*PatientView, error) {
	p, err := s.store.GetPatientProfile(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPatientProfileNotFound
		}
		return nil, fmt.Errorf("load patient profile: %w", err)
	}
	if err := applyPatient(p, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdatePatientProfile(ctx, p); err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPatientProfileNotFound
		}
		return nil, fmt.Errorf("update patient profile: %w", err)
	}
	return PatientViewOf(p), nil
}

func applyPatient(p *repo.PatientProfile, in PatientInput) error {
	if in.DateOfBirth != nil {
		v := strings.TrimSpace(*in.DateOfBirth)
		if v == "" {
			p.DateOfBirth = nil
		} else {
			dob, err := time.Parse(dateLayout, v)
			if err != nil {
				return invalid("dateOfBirth must be formatted as YYYY-MM-DD")
			}
			if dob.After(time.Now()) {
				return invalid("dateOfBirth must be in the past")
			}
			p.DateOfBirth = &dob
		}
	}
	if in.Gender != nil {
		g := optional(in.Gender)
		if g != nil {
			upper := strings.ToUpper(*g)
			if !genders[upper] {
				return invalid("gender must be one of MALE, FEMALE, OTHER")
			}
			g = &upper
		}
		p.Gender = g
	}

	set := func(dst **string, v *string) {
		if v != nil {
			*dst = optional(v)
		}
	}
	set(&p.Address, in.Address)
	set(&p.EmergencyContactName, in.EmergencyContactName)
	set(&p.EmergencyContactPhone, in.EmergencyContactPhone)
	set(&p.MedicalHistory, in.MedicalHistory)
	set(&p.Allergies, in.Allergies)
	set(&p.CurrentMedications, in.CurrentMedications)
	return nil
}
