package repo

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

const doctorProfilesTable = "doctor_profiles"

var doctorProfileColumns = []string{
	"id", "license_number", "specialties", "years_of_experience", "bio",
	"consultation_fee", "consultation_type", "accepts_referrals", "hospital_affiliations",
	"bank_name", "bank_account_number", "bank_account_name",
	"clinic_name", "address_line1", "address_line2", "city", "district", "country",
	"is_verified", "verification_status", "created_at", "updated_at", "user_id",
}

func scanDoctorProfile(s entsql.ColumnScanner) (*DoctorProfile, error) {
	p := &DoctorProfile{}
	err := s.Scan(
		&p.ID, &p.LicenseNumber, &p.Specialties, &p.YearsOfExperience, &p.Bio,
		&p.ConsultationFee, &p.ConsultationType, &p.AcceptsReferrals, &p.HospitalAffiliations,
		&p.BankName, &p.BankAccountNumber, &p.BankAccountName,
		&p.ClinicName, &p.AddressLine1, &p.AddressLine2, &p.City, &p.District, &p.Country,
		&p.IsVerified, &p.VerificationStatus, &p.CreatedAt, &p.UpdatedAt, &p.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("scan doctor profile: %w", err)
	}
	return p, nil
}

func (p *DoctorProfile) values() []any {
	return []any{
		p.ID, p.LicenseNumber, p.Specialties, p.YearsOfExperience, p.Bio,
		p.ConsultationFee, p.ConsultationType, p.AcceptsReferrals, p.HospitalAffiliations,
		p.BankName, p.BankAccountNumber, p.BankAccountName,
		p.ClinicName, p.AddressLine1, p.AddressLine2, p.City, p.District, p.Country,
		p.IsVerified, p.VerificationStatus, p.CreatedAt, p.UpdatedAt, p.UserID,
	}
}

// GetDoctorProfile returns the profile owned by userID, or ErrNotFound.
func (c *Client) GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	query, args := builder().
		Select(doctorProfileColumns...).
		From(entsql.Table(doctorProfilesTable)).
		Where(entsql.EQ("user_id", userID)).
		Query()
	return queryOne(ctx, c.driver, query, args, scanDoctorProfile)
}

// CreateDoctorProfile registers the license and inserts the profile in one
// transaction. A license already held by anyone returns ErrConstraint.
func (c *Client) CreateDoctorProfile(ctx context.Context, p *DoctorProfile) error {
	if p.ID == uuid.Nil {
		p.ID = NewID()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	if p.VerificationStatus == "" {
		p.VerificationStatus = VerificationPending
	}
	if p.ConsultationType == "" {
		p.ConsultationType = ConsultationBoth
	}

	return c.withTx(ctx, func(q dialect.ExecQuerier) error {
		if err := registerLicense(ctx, q, p.LicenseNumber, p.UserID, LicenseKindDoctor); err != nil {
			return err
		}
		query, args := builder().
			Insert(doctorProfilesTable).
			Columns(doctorProfileColumns...).
			Values(p.values()...).
			Query()
		if err := exec(ctx, q, query, args); err != nil {
			return fmt.Errorf("insert doctor profile: %w", err)
		}
		return nil
	})
}

// UpdateDoctorProfile overwrites the mutable columns of p. previousLicense is
// the number currently registered for the doctor.
func (c *Client) UpdateDoctorProfile(ctx context.Context, p *DoctorProfile, previousLicense string) error {
	p.UpdatedAt = time.Now().UTC()

	return c.withTx(ctx, func(q dialect.ExecQuerier) error {
		if err := swapLicense(ctx, q, previousLicense, p.LicenseNumber, p.UserID, LicenseKindDoctor); err != nil {
			return err
		}
		query, args := builder().
			Update(doctorProfilesTable).
			Set("license_number", p.LicenseNumber).
			Set("specialties", p.Specialties).
			Set("years_of_experience", p.YearsOfExperience).
			Set("bio", p.Bio).
			Set("consultation_fee", p.ConsultationFee).
			Set("consultation_type", p.ConsultationType).
			Set("accepts_referrals", p.AcceptsReferrals).
			Set("hospital_affiliations", p.HospitalAffiliations).
			Set("bank_name", p.BankName).
			Set("bank_account_number", p.BankAccountNumber).
			Set("bank_account_name", p.BankAccountName).
			Set("clinic_name", p.ClinicName).
			Set("address_line1", p.AddressLine1).
			Set("address_line2", p.AddressLine2).
			Set("city", p.City).
			Set("district", p.District).
			Set("country", p.Country).
			Set("updated_at", p.UpdatedAt).
			Where(entsql.EQ("user_id", p.UserID)).
			Query()
		n, err := execAffected(ctx, q, query, args)
		if err != nil {
			return fmt.Errorf("update doctor profile: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
