package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
)

type DoctorInput struct {
	LicenseNumber        string   `json:"licenseNumber"`
	Specialties          []string `json:"specialties"`
	YearsOfExperience    *int     `json:"yearsOfExperience"`
	Bio                  *string  `json:"bio"`
	ConsultationFee      float64  `json:"consultationFee"`
	ConsultationType     string   `json:"consultationType"`
	AcceptsReferrals     *bool    `json:"acceptsReferrals"`
	HospitalAffiliations []string `json:"hospitalAffiliations"`
	BankName             *string  `json:"bankName"`
	BankAccountNumber    *string  `json:"bankAccountNumber"`
	BankAccountName      *string  `json:"bankAccountName"`
	ClinicName           *string  `json:"clinicName"`
	AddressLine1         *string  `json:"addressLine1"`
	AddressLine2         *string  `json:"addressLine2"`
	City                 *string  `json:"city"`
	District             *string  `json:"district"`
	Country              *string  `json:"country"`
}

type DoctorView struct {
	ID                   uuid.UUID               `json:"id"`
	UserID               uuid.UUID               `json:"userId"`
	LicenseNumber        string                  `json:"licenseNumber"`
	Specialties          []string                `json:"specialties"`
	YearsOfExperience    *int                    `json:"yearsOfExperience"`
	Bio                  *string                 `json:"bio"`
	ConsultationFee      float64                 `json:"consultationFee"`
	ConsultationType     repo.ConsultationType   `json:"consultationType"`
	AcceptsReferrals     bool                    `json:"acceptsReferrals"`
	HospitalAffiliations []string                `json:"hospitalAffiliations"`
	BankName             *string                 `json:"bankName"`
	BankAccountNumber    *string                 `json:"bankAccountNumber"`
	BankAccountName      *string                 `json:"bankAccountName"`
	ClinicName           *string                 `json:"clinicName"`
	AddressLine1         *string                 `json:"addressLine1"`
	AddressLine2         *string                 `json:"addressLine2"`
	City                 *string                 `json:"city"`
	District             *string                 `json:"district"`
	Country              *string                 `json:"country"`
	IsVerified           bool                    `json:"isVerified"`
	VerificationStatus   repo.VerificationStatus `json:"verificationStatus"`
	CreatedAt            time.Time               `json:"createdAt"`
	UpdatedAt            time.Time               `json:"updatedAt"`
}

func (s *profileService) CreateDoctor(ctx context.Context, userID uuid.UUID, in DoctorInput) (*DoctorView, error) {
	if _, err := s.requireRole(ctx, userID, repo.RoleDoctor, ErrNotDoctor); err != nil {
		return nil, err
	}
	if _, err := s.store.GetDoctorProfile(ctx, userID); err == nil {
		return nil, ErrDoctorProfileExists
	} else if !repo.IsNotFound(err) {
		return nil, fmt.Errorf("load doctor profile: %w", err)
	}

	p := &repo.DoctorProfile{UserID: userID, VerificationStatus: repo.VerificationPending}
	if err := s.applyDoctor(p, in, true); err != nil {
		return nil, err
	}
	if err := s.checkDoctorLicense(ctx, p.LicenseNumber, userID); err != nil {
		return nil, err
	}

	if err := s.store.CreateDoctorProfile(ctx, p); err != nil {
		if repo.IsConstraint(err) {
			return nil, s.doctorConflict(ctx, p.LicenseNumber, userID, ErrDoctorProfileExists)
		}
		return nil, fmt.Errorf("create doctor profile: %w", err)
	}
	s.logger.InfoContext(ctx, "doctor profile created", "user_id", userID)
	return s.doctorView(p)
}

func (s *profileService) GetDoctor(ctx context.Context, userID uuid.UUID) (*DoctorView, error) {
	p, err := s.store.GetDoctorProfile(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrDoctorProfileNotFound
		}
		return nil, fmt.Errorf("load doctor profile: %w", err)
	}
	return s.doctorView(p)
}

func (s *profileService) UpdateDoctor(ctx context.Context, userID uuid.UUID, in DoctorInput) (*DoctorView, error) {
	p, err := s.store.GetDoctorProfile(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrDoctorProfileNotFound
		}
		return nil, fmt.Errorf("load doctor profile: %w", err)
	}
	previous := p.LicenseNumber
	if err := s.applyDoctor(p, in, false); err != nil {
		return nil, err
	}
	if p.LicenseNumber != previous {
		if err := s.checkDoctorLicense(ctx, p.LicenseNumber, userID); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateDoctorProfile(ctx, p, previous); err != nil {
		switch {
		case repo.IsNotFound(err):
			return nil, ErrDoctorProfileNotFound
		case repo.IsConstraint(err):
			return nil, s.doctorConflict(ctx, p.LicenseNumber, userID, ErrLicenseTakenByDoctor)
		}
		return nil, fmt.Errorf("update doctor profile: %w", err)
	}
	return s.doctorView(p)
}

func (s *profileService) checkDoctorLicense(ctx context.Context, number string, userID uuid.UUID) error {
	owner, err := s.licenseOwner(ctx, number, userID)
	if err != nil || owner == nil {
		return err
	}
	if owner.Kind == repo.LicenseKindPhysio {
		return ErrLicenseTakenByPhysio
	}
	return ErrLicenseTakenByDoctor
}

// doctorConflict explains a unique violation on insert or update: a license
// registered in the meantime wins over the fallback.
func (s *profileService) doctorConflict(ctx context.Context, number string, userID uuid.UUID, fallback error) error {
	if err := s.checkDoctorLicense(ctx, number, userID); err != nil {
		return err
	}
	return fallback
}

func (s *profileService) applyDoctor(p *repo.DoctorProfile, in DoctorInput, creating bool) error {
	license := strings.TrimSpace(in.LicenseNumber)
	if license == "" {
		return invalid("licenseNumber is required")
	}
	specialties := trimAll(in.Specialties)
	if len(specialties) == 0 {
		return invalid("At least one specialty is required")
	}
	if creating && in.ConsultationFee <= 0 {
		return invalid("consultationFee must be greater than 0")
	}
	if in.ConsultationFee < 0 {
		return invalid("consultationFee must not be negative")
	}
	if in.YearsOfExperience != nil && *in.YearsOfExperience < 0 {
		return invalid("yearsOfExperience must not be negative")
	}

	ct := repo.ConsultationBoth
	if v := strings.TrimSpace(in.ConsultationType); v != "" {
		ct = repo.ConsultationType(strings.ToUpper(v))
		if !ct.Valid() {
			return invalid("consultationType must be one of VIDEO, IN_PERSON, BOTH")
		}
	}

	account, err := s.cipher.EncryptPtr(optional(in.BankAccountNumber))
	if err != nil {
		return fmt.Errorf("encrypt bank account number: %w", err)
	}

	p.LicenseNumber = license
	p.Specialties = specialties
	p.YearsOfExperience = in.YearsOfExperience
	p.Bio = optional(in.Bio)
	p.ConsultationFee = in.ConsultationFee
	p.ConsultationType = ct
	p.AcceptsReferrals = in.AcceptsReferrals == nil || *in.AcceptsReferrals
	p.HospitalAffiliations = trimAll(in.HospitalAffiliations)
	p.BankName = optional(in.BankName)
	p.BankAccountNumber = account
	p.BankAccountName = optional(in.BankAccountName)
	p.ClinicName = optional(in.ClinicName)
	p.AddressLine1 = optional(in.AddressLine1)
	p.AddressLine2 = optional(in.AddressLine2)
	p.City = optional(in.City)
	p.District = optional(in.District)
	p.Country = optional(in.Country)
	return nil
}

func (s *profileService) doctorView(p *repo.DoctorProfile) (*DoctorView, error) {
	account, err := s.cipher.DecryptPtr(p.BankAccountNumber)
	if err != nil {
		return nil, fmt.Errorf("decrypt bank account number: %w", err)
	}
	return &DoctorView{
		ID:                   p.ID,
		UserID:               p.UserID,
		LicenseNumber:        p.LicenseNumber,
		Specialties:          p.Specialties,
		YearsOfExperience:    p.YearsOfExperience,
		Bio:                  p.Bio,
		ConsultationFee:      p.ConsultationFee,
		ConsultationType:     p.ConsultationType,
		AcceptsReferrals:     p.AcceptsReferrals,
		HospitalAffiliations: p.HospitalAffiliations,
		BankName:             p.BankName,
		BankAccountNumber:    account,
		BankAccountName:      p.BankAccountName,
		ClinicName:           p.ClinicName,
		AddressLine1:         p.AddressLine1,
		AddressLine2:         p.AddressLine2,
		City:                 p.City,
		District:             p.District,
		Country:              p.Country,
		IsVerified:           p.IsVerified,
		VerificationStatus:   p.VerificationStatus,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}, nil
}
