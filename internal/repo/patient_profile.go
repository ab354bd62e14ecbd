package repo

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

const patientProfilesTable = "patient_profiles"

var patientProfileColumns = []string{
	"id", "date_of_birth", "gender", "address", "emergency_contact_name", "emergency_contact_phone",
	"medical_history", "allergies", "current_medications", "created_at", "updated_at", "user_id",
}

func scanPatientProfile(s entsql.ColumnScanner) (*PatientProfile, error) {
	p := &PatientProfile{}
	err := s.Scan(
		&p.ID, &p.DateOfBirth, &p.Gender, &p.Address, &p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.MedicalHistory, &p.Allergies, &p.CurrentMedications, &p.CreatedAt, &p.UpdatedAt, &p.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("scan patient profile: %w", err)
	}
	return p, nil
}

func (c *Client) GetPatientProfile(ctx context.Context, userID uuid.UUID) (*PatientProfile, error) {
	query, args := builder().
		Select(patientProfileColumns...).
		From(entsql.Table(patientProfilesTable)).
		Where(entsql.EQ("user_id", userID)).
		Query()
	return queryOne(ctx, c.driver, query, args, scanPatientProfile)
}

func (c *Client) CreatePatientProfile(ctx context.Context, p *PatientProfile) error {
	return insertPatientProfile(ctx, c.driver, p)
}

func insertPatientProfile(ctx context.Context, q dialect.ExecQuerier, p *PatientProfile) error {
	if p.ID == uuid.Nil {
		p.ID = NewID()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt

	query, args := builder().
		Insert(patientProfilesTable).
		Columns(patientProfileColumns...).
		Values(
			p.ID, p.DateOfBirth, p.Gender, p.Address, p.EmergencyContactName, p.EmergencyContactPhone,
			p.MedicalHistory, p.Allergies, p.CurrentMedications, p.CreatedAt, p.UpdatedAt, p.UserID,
		).
		Query()
	if err := exec(ctx, q, query, args); err != nil {
		return fmt.Errorf("insert patient profile: %w", err)
	}
	return nil
}

func (c *Client) UpdatePatientProfile(ctx context.Context, p *PatientProfile) error {
	p.UpdatedAt = time.Now().UTC()
	query, args := builder().
		Update(patientProfilesTable).
		Set("date_of_birth", p.DateOfBirth).
		Set("gender", p.Gender).
		Set("address", p.Address).
		Set("emergency_contact_name", p.EmergencyContactName).
		Set("emergency_contact_phone", p.EmergencyContactPhone).
		Set("medical_history", p.MedicalHistory).
		Set("allergies", p.Allergies).
		Set("current_medications", p.CurrentMedications).
		Set("updated_at", p.UpdatedAt).
		Where(entsql.EQ("user_id", p.UserID)).
		Query()
	n, err := execAffected(ctx, c.driver, query, args)
	if err != nil {
		return fmt.Errorf("update patient profile: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
