package repo

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role tags an identity. It never changes after creation.
type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RolePhysio  Role = "PHYSIO"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RolePhysio, RoleAdmin:
		return true
	}
	return false
}

type ReferralStatus string

const (
	ReferralStatusActive    ReferralStatus = "ACTIVE"
	ReferralStatusExpired   ReferralStatus = "EXPIRED"
	ReferralStatusCompleted ReferralStatus = "COMPLETED"
	ReferralStatusRevoked   ReferralStatus = "REVOKED"
)

func (s ReferralStatus) Valid() bool {
	switch s {
	case ReferralStatusActive, ReferralStatusExpired, ReferralStatusCompleted, ReferralStatusRevoked:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyRoutine   Urgency = "ROUTINE"
	UrgencyUrgent    Urgency = "URGENT"
	UrgencyEmergency Urgency = "EMERGENCY"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyRoutine, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}

// ReferralServiceType is where the referred sessions take place.
type ReferralServiceType string

const (
	ReferralServiceClinic    ReferralServiceType = "CLINIC"
	ReferralServiceHomeVisit ReferralServiceType = "HOME_VISIT"
)

func (t ReferralServiceType) Valid() bool {
	return t == ReferralServiceClinic || t == ReferralServiceHomeVisit
}

// ServiceType classifies a physio service offering.
type ServiceType string

const (
	ServiceTypeClinic    ServiceType = "CLINIC"
	ServiceTypeHomeVisit ServiceType = "HOME_VISIT"
	ServiceTypeBoth      ServiceType = "BOTH"
)

func (t ServiceType) Valid() bool {
	switch t {
	case ServiceTypeClinic, ServiceTypeHomeVisit, ServiceTypeBoth:
		return true
	}
	return false
}

type ConsultationType string

const (
	ConsultationVideo    ConsultationType = "VIDEO"
	ConsultationInPerson ConsultationType = "IN_PERSON"
	ConsultationBoth     ConsultationType = "BOTH"
)

func (t ConsultationType) Valid() bool {
	switch t {
	case ConsultationVideo, ConsultationInPerson, ConsultationBoth:
		return true
	}
	return false
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// LicenseKind names the namespace a registered license number belongs to.
type LicenseKind string

const (
	LicenseKindDoctor LicenseKind = "DOCTOR"
	LicenseKindPhysio LicenseKind = "PHYSIO"
)

// ---------------------------------------------------------------------------
// Entities
// ---------------------------------------------------------------------------

type User struct {
	ID           uuid.UUID
	Email        *string
	Username     *string
	Phone        *string
	PasswordHash string
	Role         Role
	FirstName    *string
	LastName     *string
	IsActive     bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type DoctorProfile struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	LicenseNumber        string
	Specialties          Strings
	YearsOfExperience    *int
	Bio                  *string
	ConsultationFee      float64
	ConsultationType     ConsultationType
	AcceptsReferrals     bool
	HospitalAffiliations Strings
	BankName             *string
	BankAccountNumber    *string // ciphertext
	BankAccountName      *string
	ClinicName           *string
	AddressLine1         *string
	AddressLine2         *string
	City                 *string
	District             *string
	Country              *string
	IsVerified           bool
	VerificationStatus   VerificationStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type PhysioProfile struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	LicenseNo           string
	Specialties         Strings
	OffersClinicService bool
	OffersHomeService   bool
	ClinicAddress       *string
	ServiceRadius       *float64
	ServiceDistricts    Strings
	BankName            *string
	AccountNumber       *string // ciphertext
	AccountName         *string
	IsLicenseVerified   bool
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Services []*Service
}

// Service is a priced, timed treatment a physio offers.
type Service struct {
	ID          uuid.UUID
	ProviderID  uuid.UUID
	Name        string
	Description *string
	Duration    int // minutes
	Price       float64
	ServiceType ServiceType
	CreatedAt   time.Time
}

type PatientProfile struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	DateOfBirth           *time.Time
	Gender                *string
	Address               *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
	MedicalHistory        *string
	Allergies             *string
	CurrentMedications    *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type License struct {
	Number    string
	UserID    uuid.UUID
	Kind      LicenseKind
	CreatedAt time.Time
}

type Referral struct {
	ID           uuid.UUID
	DoctorID     uuid.UUID
	PatientID    uuid.UUID
	PhysioID     uuid.UUID
	Diagnosis    string
	Sessions     int
	SessionsUsed int
	Urgency      Urgency
	ServiceType  *ReferralServiceType
	Notes        *string
	IssuedAt     time.Time
	ExpiryDate   time.Time
	Status       ReferralStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ReferralFilter narrows ListReferrals. Nil fields are ignored.
type ReferralFilter struct {
	DoctorID   *uuid.UUID
	PatientID  *uuid.UUID
	PhysioID   *uuid.UUID
	Status     *ReferralStatus
	ValidAfter *time.Time // expiry_date >= ValidAfter
}

// NewID returns a time-ordered UUIDv7.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return id
}

// Strings is a string list persisted as a JSON array.
type Strings []string

func (s Strings) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Strings) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = Strings{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("repo: cannot scan %T into Strings", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("repo: decode string list: %w", err)
	}
	*s = out
	return nil
}
