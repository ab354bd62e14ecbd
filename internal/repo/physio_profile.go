package repo

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

const (
	physioProfilesTable = "physio_profiles"
	physioServicesTable = "physio_services"
)

var physioProfileColumns = []string{
	"id", "license_no", "specialties", "offers_clinic_service", "offers_home_service",
	"clinic_address", "service_radius", "service_districts",
	"bank_name", "account_number", "account_name", "is_license_verified",
	"created_at", "updated_at", "user_id",
}

var physioServiceColumns = []string{
	"id", "name", "description", "duration", "price", "service_type", "created_at", "provider_id",
}

func scanPhysioProfile(s entsql.ColumnScanner) (*PhysioProfile, error) {
	p := &PhysioProfile{}
	err := s.Scan(
		&p.ID, &p.LicenseNo, &p.Specialties, &p.OffersClinicService, &p.OffersHomeService,
		&p.ClinicAddress, &p.ServiceRadius, &p.ServiceDistricts,
		&p.BankName, &p.AccountNumber, &p.AccountName, &p.IsLicenseVerified,
		&p.CreatedAt, &p.UpdatedAt, &p.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("scan physio profile: %w", err)
	}
	return p, nil
}

func scanService(s entsql.ColumnScanner) (*Service, error) {
	sv := &Service{}
	err := s.Scan(&sv.ID, &sv.Name, &sv.Description, &sv.Duration, &sv.Price, &sv.ServiceType, &sv.CreatedAt, &sv.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("scan service: %w", err)
	}
	return sv, nil
}

// GetPhysioProfile returns the profile owned by userID with its services.
func (c *Client) GetPhysioProfile(ctx context.Context, userID uuid.UUID) (*PhysioProfile, error) {
	query, args := builder().
		Select(physioProfileColumns...).
		From(entsql.Table(physioProfilesTable)).
		Where(entsql.EQ("user_id", userID)).
		Query()
	p, err := queryOne(ctx, c.driver, query, args, scanPhysioProfile)
	if err != nil {
		return nil, err
	}

	query, args = builder().
		Select(physioServiceColumns...).
		From(entsql.Table(physioServicesTable)).
		Where(entsql.EQ("provider_id", p.ID)).
		OrderBy("created_at", "name").
		Query()
	p.Services, err = queryAll(ctx, c.driver, query, args, scanService)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	return p, nil
}

// CreatePhysioProfile registers the license, inserts the profile and its
// services in one transaction.
func (c *Client) CreatePhysioProfile(ctx context.Context, p *PhysioProfile) error {
	if p.ID == uuid.Nil {
		p.ID = NewID()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt

	return c.withTx(ctx, func(q dialect.ExecQuerier) error {
		if err := registerLicense(ctx, q, p.LicenseNo, p.UserID, LicenseKindPhysio); err != nil {
			return err
		}
		query, args := builder().
			Insert(physioProfilesTable).
			Columns(physioProfileColumns...).
			Values(
				p.ID, p.LicenseNo, p.Specialties, p.OffersClinicService, p.OffersHomeService,
				p.ClinicAddress, p.ServiceRadius, p.ServiceDistricts,
				p.BankName, p.AccountNumber, p.AccountName, p.IsLicenseVerified,
				p.CreatedAt, p.UpdatedAt, p.UserID,
			).
			Query()
		if err := exec(ctx, q, query, args); err != nil {
			return fmt.Errorf("insert physio profile: %w", err)
		}
		return insertServices(ctx, q, p.ID, p.Services)
	})
}

// UpdatePhysioProfile overwrites the mutable columns of p. When
// replaceServices is set the existing services are deleted and p.Services
// inserted in their place.
func (c *Client) UpdatePhysioProfile(ctx context.Context, p *PhysioProfile, previousLicense string, replaceServices bool) error {
	p.UpdatedAt = time.Now().UTC()

	return c.withTx(ctx, func(q dialect.ExecQuerier) error {
		if err := swapLicense(ctx, q, previousLicense, p.LicenseNo, p.UserID, LicenseKindPhysio); err != nil {
			return err
		}
		query, args := builder().
			Update(physioProfilesTable).
			Set("license_no", p.LicenseNo).
			Set("specialties", p.Specialties).
			Set("offers_clinic_service", p.OffersClinicService).
			Set("offers_home_service", p.OffersHomeService).
			Set("clinic_address", p.ClinicAddress).
			Set("service_radius", p.ServiceRadius).
			Set("service_districts", p.ServiceDistricts).
			Set("bank_name", p.BankName).
			Set("account_number", p.AccountNumber).
			Set("account_name", p.AccountName).
			Set("updated_at", p.UpdatedAt).
			Where(entsql.EQ("id", p.ID)).
			Query()
		n, err := execAffected(ctx, q, query, args)
		if err != nil {
			return fmt.Errorf("update physio profile: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		if !replaceServices {
			return nil
		}

		query, args = builder().
			Delete(physioServicesTable).
			Where(entsql.EQ("provider_id", p.ID)).
			Query()
		if err := exec(ctx, q, query, args); err != nil {
			return fmt.Errorf("delete services: %w", err)
		}
		return insertServices(ctx, q, p.ID, p.Services)
	})
}

func insertServices(ctx context.Context, q dialect.ExecQuerier, providerID uuid.UUID, services []*Service) error {
	if len(services) == 0 {
		return nil
	}
	now := time.Now().UTC()
	ins := builder().Insert(physioServicesTable).Columns(physioServiceColumns...)
	for _, sv := range services {
		if sv.ID == uuid.Nil {
			sv.ID = NewID()
		}
		sv.ProviderID = providerID
		sv.CreatedAt = now
		ins.Values(sv.ID, sv.Name, sv.Description, sv.Duration, sv.Price, sv.ServiceType, sv.CreatedAt, sv.ProviderID)
	}
	query, args := ins.Query()
	if err := exec(ctx, q, query, args); err != nil {
		return fmt.Errorf("insert services: %w", err)
	}
	return nil
}
