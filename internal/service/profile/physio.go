package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
)

type ServiceInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Duration    int     `json:"duration"`
	Price       float64 `json:"price"`
	ServiceType string  `json:"serviceType"`
}

// PhysioInput replaces the whole profile. A nil Services keeps the stored
// services; a non-nil (even empty) list replaces them.
type PhysioInput struct {
	LicenseNo           string         `json:"licenseNo"`
	Specialties         []string       `json:"specialties"`
	Services            []ServiceInput `json:"services"`
	OffersClinicService bool           `json:"offersClinicService"`
	OffersHomeService   bool           `json:"offersHomeService"`
	ClinicAddress       *string        `json:"clinicAddress"`
	ServiceRadius       *float64       `json:"serviceRadius"`
	ServiceDistricts    []string       `json:"serviceDistricts"`
	BankName            *string        `json:"bankName"`
	AccountNumber       *string        `json:"accountNumber"`
	AccountName         *string        `json:"accountName"`
}

type ServiceView struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Duration    int              `json:"duration"`
	Price       float64          `json:"price"`
	ServiceType repo.ServiceType `json:"serviceType"`
}

type PhysioView struct {
	ID                  uuid.UUID      `json:"id"`
	UserID              uuid.UUID      `json:"userId"`
	LicenseNo           string         `json:"licenseNo"`
	Specialties         []string       `json:"specialties"`
	OffersClinicService bool           `json:"offersClinicService"`
	OffersHomeService   bool           `json:"offersHomeService"`
	ClinicAddress       *string        `json:"clinicAddress"`
	ServiceRadius       *float64       `json:"serviceRadius"`
	ServiceDistricts    []string       `json:"serviceDistricts"`
	BankName            *string        `json:"bankName"`
	AccountNumber       *string        `json:"accountNumber"`
	AccountName         *string        `json:"accountName"`
	IsLicenseVerified   bool           `json:"isLicenseVerified"`
	Services            []*ServiceView `json:"services"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

func (s *profileService) CreatePhysio(ctx context.Context, userID uuid.UUID, in PhysioInput) (*PhysioView, error) {
	if _, err := s.requireRole(ctx, userID, repo.RolePhysio, ErrNotPhysio); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPhysioProfile(ctx, userID); err == nil {
		return nil, ErrPhysioProfileExists
	} else if !repo.IsNotFound(err) {
		return nil, fmt.Errorf("load physio profile: %w", err)
	}

	p := &repo.PhysioProfile{UserID: userID}
	if err := s.applyPhysio(p, in); err != nil {
		return nil, err
	}
	if p.Services == nil {
		p.Services = []*repo.Service{}
	}
	if err := s.checkPhysioLicense(ctx, p.LicenseNo, userID); err != nil {
		return nil, err
	}

	if err := s.store.CreatePhysioProfile(ctx, p); err != nil {
		if repo.IsConstraint(err) {
			if lerr := s.checkPhysioLicense(ctx, p.LicenseNo, userID); lerr != nil {
				return nil, lerr
			}
			return nil, ErrPhysioProfileExists
		}
		return nil, fmt.Errorf("create physio profile: %w", err)
	}
	s.logger.InfoContext(ctx, "physio profile created", "user_id", userID, "services", len(p.Services))
	return s.physioView(p)
}

func (s *profileService) GetPhysio(ctx context.Context, userID uuid.UUID) (*PhysioView, error) {
	p, err := s.store.GetPhysioProfile(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPhysioProfileNotFound
		}
		return nil, fmt.Errorf("load physio profile: %w", err)
	}
	return s.physioView(p)
}

func (s *profileService) UpdatePhysio(ctx context.Context, userID uuid.UUID, in PhysioInput) (*PhysioView, error) {
	p, err := s.store.GetPhysioProfile(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPhysioProfileNotFound
		}
		return nil, fmt.Errorf("load physio profile: %w", err)
	}
	previous := p.LicenseNo
	current := p.Services
	if err := s.applyPhysio(p, in); err != nil {
		return nil, err
	}
	replace := in.Services != nil
	if !replace {
		p.Services = current
	}
	if p.LicenseNo != previous {
		if err := s.checkPhysioLicense(ctx, p.LicenseNo, userID); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdatePhysioProfile(ctx, p, previous, replace); err != nil {
		switch {
		case repo.IsNotFound(err):
			return nil, ErrPhysioProfileNotFound
		case repo.IsConstraint(err):
			if lerr := s.checkPhysioLicense(ctx, p.LicenseNo, userID); lerr != nil {
				return nil, lerr
			}
			return nil, ErrPhysioLicenseTakenByPhysio
		}
		return nil, fmt.Errorf("update physio profile: %w", err)
	}
	return s.physioView(p)
}

func (s *profileService) checkPhysioLicense(ctx context.Context, number string, userID uuid.UUID) error {
	owner, err := s.licenseOwner(ctx, number, userID)
	if err != nil || owner == nil {
		return err
	}
	if owner.Kind == repo.LicenseKindDoctor {
		return ErrPhysioLicenseTakenByDoctor
	}
	return ErrPhysioLicenseTakenByPhysio
}

func (s *profileService) applyPhysio(p *repo.PhysioProfile, in PhysioInput) error {
	license := strings.TrimSpace(in.LicenseNo)
	if license == "" {
		return invalid("licenseNo is required")
	}
	specialties := trimAll(in.Specialties)
	if len(specialties) == 0 {
		return invalid("At least one specialty is required")
	}
	if !in.OffersClinicService && !in.OffersHomeService {
		return invalid("At least one of clinic or home service must be offered")
	}
	if in.ServiceRadius != nil && *in.ServiceRadius < 0 {
		return invalid("serviceRadius must not be negative")
	}

	var services []*repo.Service
	if in.Services != nil {
		services = make([]*repo.Service, 0, len(in.Services))
		for i, sv := range in.Services {
			out, err := serviceFromInput(i, sv)
			if err != nil {
				return err
			}
			services = append(services, out)
		}
	}

	account, err := s.cipher.EncryptPtr(optional(in.AccountNumber))
	if err != nil {
		return fmt.Errorf("encrypt account number: %w", err)
	}

	p.LicenseNo = license
	p.Specialties = specialties
	p.OffersClinicService = in.OffersClinicService
	p.OffersHomeService = in.OffersHomeService
	p.ClinicAddress = optional(in.ClinicAddress)
	p.ServiceRadius = in.ServiceRadius
	p.ServiceDistricts = trimAll(in.ServiceDistricts)
	p.BankName = optional(in.BankName)
	p.AccountNumber = account
	p.AccountName = optional(in.AccountName)
	p.Services = services
	return nil
}

func serviceFromInput(i int, in ServiceInput) (*repo.Service, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid(fmt.Sprintf("services[%d].name is required", i))
	}
	if in.Duration < 1 {
		return nil, invalid(fmt.Sprintf("services[%d].duration must be at least 1 minute", i))
	}
	if in.Price < 0 {
		return nil, invalid(fmt.Sprintf("services[%d].price must not be negative", i))
	}
	st := repo.ServiceType(strings.ToUpper(strings.TrimSpace(in.ServiceType)))
	if !st.Valid() {
		return nil, invalid(fmt.Sprintf("services[%d].serviceType must be one of CLINIC, HOME_VISIT, BOTH", i))
	}
	return &repo.Service{
		Name:        name,
		Description: optional(in.Description),
		Duration:    in.Duration,
		Price:       in.Price,
		ServiceType: st,
	}, nil
}

func (s *profileService) physioView(p *repo.PhysioProfile) (*PhysioView, error) {
	account, err := s.cipher.DecryptPtr(p.AccountNumber)
	if err != nil {
		return nil, fmt.Errorf("decrypt account number: %w", err)
	}
	services := make([]*ServiceView, 0, len(p.Services))
	for _, sv := range p.Services {
		services = append(services, &ServiceView{
			ID:          sv.ID,
			Name:        sv.Name,
			Description: sv.Description,
			Duration:    sv.Duration,
			Price:       sv.Price,
			ServiceType: sv.ServiceType,
		})
	}
	return &PhysioView{
		ID:                  p.ID,
		UserID:              p.UserID,
		LicenseNo:           p.LicenseNo,
		Specialties:         p.Specialties,
		OffersClinicService: p.OffersClinicService,
		OffersHomeService:   p.OffersHomeService,
		ClinicAddress:       p.ClinicAddress,
		ServiceRadius:       p.ServiceRadius,
		ServiceDistricts:    p.ServiceDistricts,
		BankName:            p.BankName,
		AccountNumber:       account,
		AccountName:         p.AccountName,
		IsLicenseVerified:   p.IsLicenseVerified,
		Services:            services,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}, nil
}
