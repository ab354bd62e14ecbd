// Package patient is the patient directory doctors search when issuing a
// referral, plus the patient's own combined view.
package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/profile"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error)
	SearchPatients(ctx context.Context, term string, limit int) ([]*repo.User, error)
	GetPatientProfile(ctx context.Context, userID uuid.UUID) (*repo.PatientProfile, error)
}

// ProfileSummary is the part of a patient profile shown in search results.
type ProfileSummary struct {
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Gender      *string    `json:"gender"`
}

type Summary struct {
	ID             uuid.UUID       `json:"id"`
	FirstName      *string         `json:"firstName"`
	LastName       *string         `json:"lastName"`
	Email          *string         `json:"email"`
	Phone          *string         `json:"phone"`
	CreatedAt      time.Time       `json:"createdAt"`
	PatientProfile *ProfileSummary `json:"patientProfile"`
}

type Detail struct {
	ID             uuid.UUID            `json:"id"`
	Email          *string              `json:"email"`
	Phone          *string              `json:"phone"`
	FirstName      *string              `json:"firstName"`
	LastName       *string              `json:"lastName"`
	Role           repo.Role            `json:"role"`
	IsVerified     bool                 `json:"isVerified"`
	CreatedAt      time.Time            `json:"createdAt"`
	PatientProfile *profile.PatientView `json:"patientProfile"`
}

type Service interface {
	Search(ctx context.Context, callerID uuid.UUID, query string, limit int) ([]*Summary, error)
	Profile(ctx context.Context, userID uuid.UUID) (*Detail, error)
}

type patientService struct {
	store Store
}

func New(store Store) Service {
	return &patientService{store: store}
}

// Search matches active patients by name, email or phone. Only doctors and
// admins may browse the directory.
func (s *patientService) Search(ctx context.Context, callerID uuid.UUID, query string, limit int) ([]*Summary, error) {
	caller, err := s.store.GetUser(ctx, callerID)
	if err != nil && !repo.IsNotFound(err) {
		return nil, fmt.Errorf("load caller: %w", err)
	}
	if caller == nil || (caller.Role != repo.RoleDoctor && caller.Role != repo.RoleAdmin) {
		return nil, ErrAccessDenied
	}

	switch {
	case limit <= 0:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}

	users, err := s.store.SearchPatients(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}

	out := make([]*Summary, 0, len(users))
	for _, u := range users {
		sum := &Summary{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Phone:     u.Phone,
			CreatedAt: u.CreatedAt,
		}
		p, err := s.store.GetPatientProfile(ctx, u.ID)
		switch {
		case err == nil:
			sum.PatientProfile = &ProfileSummary{DateOfBirth: p.DateOfBirth, Gender: p.Gender}
		case !repo.IsNotFound(err):
			return nil, fmt.Errorf("load patient profile: %w", err)
		}
		out = append(out, sum)
	}
	return out, nil
}

// Profile returns the identity of userID with its patient profile, which
// is nil until one has been created.
func (s *patientService) Profile(ctx context.Context, userID uuid.UUID) (*Detail, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.Role != repo.RolePatient {
		return nil, ErrPatientNotFound
	}

	d := &Detail{
		ID:         u.ID,
		Email:      u.Email,
		Phone:      u.Phone,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
	p, err := s.store.GetPatientProfile(ctx, userID)
	switch {
	case err == nil:
		d.PatientProfile = profile.PatientViewOf(p)
	case !repo.IsNotFound(err):
		return nil, fmt.Errorf("load patient profile: %w", err)
	}
	return d, nil
}
