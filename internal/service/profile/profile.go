// Package profile manages the role-specific profiles attached to doctor,
// physiotherapist and patient identities.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
)

type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error)
	GetLicense(ctx context.Context, number string) (*repo.License, error)

	GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*repo.DoctorProfile, error)
	CreateDoctorProfile(ctx context.Context, p *repo.DoctorProfile) error
	UpdateDoctorProfile(ctx context.Context, p *repo.DoctorProfile, previousLicense string) error

	GetPhysioProfile(ctx context.Context, userID uuid.UUID) (*repo.PhysioProfile, error)
	CreatePhysioProfile(ctx context.Context, p *repo.PhysioProfile) error
	UpdatePhysioProfile(ctx context.Context, p *repo.PhysioProfile, previousLicense string, replaceServices bool) error

	GetPatientProfile(ctx context.Context, userID uuid.UUID) (*repo.PatientProfile, error)
	CreatePatientProfile(ctx context.Context, p *repo.PatientProfile) error
	UpdatePatientProfile(ctx context.Context, p *repo.PatientProfile) error
}

// Cipher seals banking account numbers. *crypto.FieldCipher satisfies it.
type Cipher interface {
	EncryptPtr(v *string) (*string, error)
	DecryptPtr(v *string) (*string, error)
}

type Service interface {
	CreateDoctor(ctx context.Context, userID uuid.UUID, in DoctorInput) (*DoctorView, error)
	GetDoctor(ctx context.Context, userID uuid.UUID) (*DoctorView, error)
	UpdateDoctor(ctx context.Context, userID uuid.UUID, in DoctorInput) (*DoctorView, error)

	CreatePhysio(ctx context.Context, userID uuid.UUID, in PhysioInput) (*PhysioView, error)
	GetPhysio(ctx context.Context, userID uuid.UUID) (*PhysioView, error)
	UpdatePhysio(ctx context.Context, userID uuid.UUID, in PhysioInput) (*PhysioView, error)

	CreatePatient(ctx context.Context, userID uuid.UUID, in PatientInput) (*PatientView, error)
	GetPatient(ctx context.Context, userID uuid.UUID) (*PatientView, error)
	UpdatePatient(ctx context.Context, userID uuid.UUID, in PatientInput) (*PatientView, error)
}

type profileService struct {
	store  Store
	cipher Cipher
	logger *slog.Logger
}

func New(store Store, cipher Cipher, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &profileService{store: store, cipher: cipher, logger: logger}
}

// requireRole loads the caller and checks it holds role.
func (s *profileService) requireRole(ctx context.Context, userID uuid.UUID, role repo.Role, wrongRole error) (*repo.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.Role != role {
		return nil, wrongRole
	}
	return u, nil
}

// licenseOwner reports who already holds number, or nil when it is free or
// held by userID itself.
func (s *profileService) licenseOwner(ctx context.Context, number string, userID uuid.UUID) (*repo.License, error) {
	l, err := s.store.GetLicense(ctx, number)
	if repo.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up license: %w", err)
	}
	if l.UserID == userID {
		return nil, nil
	}
	return l, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// optional trims v and turns blanks into nil.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
