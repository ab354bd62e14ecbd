package referral

import (
	"time"

	"github.com/google/uuid"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
)

// Party is the public summary of a referral participant.
type Party struct {
	ID        uuid.UUID `json:"id"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
}

type DoctorParty struct {
	Party
	Specialties   []string `json:"specialties"`
	LicenseNumber string   `json:"licenseNumber,omitempty"`
	ClinicName    *string  `json:"clinicName,omitempty"`
	City          *string  `json:"city,omitempty"`
}

type PhysioParty struct {
	Party
	Specialties []string `json:"specialties"`
}

// Detail is a referral with its participants expanded.
type Detail struct {
	ID           uuid.UUID                 `json:"id"`
	Diagnosis    string                    `json:"diagnosis"`
	Sessions     int                       `json:"sessions"`
	SessionsUsed int                       `json:"sessionsUsed"`
	Urgency      repo.Urgency              `json:"urgency"`
	ServiceType  *repo.ReferralServiceType `json:"serviceType"`
	Notes        *string                   `json:"notes"`
	IssuedAt     time.Time                 `json:"issuedAt"`
	ExpiryDate   time.Time                 `json:"expiryDate"`
	Status       repo.ReferralStatus       `json:"status"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`

	DoctorID  uuid.UUID `json:"doctorId"`
	PatientID uuid.UUID `json:"patientId"`
	PhysioID  uuid.UUID `json:"physioId"`

	Doctor  *DoctorParty `json:"doctor,omitempty"`
	Patient *Party       `json:"patient,omitempty"`
	Physio  *PhysioParty `json:"physio,omitempty"`
}

func partyOf(u *repo.User) Party {
	return Party{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
	}
}

func newDetail(r *repo.Referral) *Detail {
	return &Detail{
		ID:           r.ID,
		Diagnosis:    r.Diagnosis,
		Sessions:     r.Sessions,
		SessionsUsed: r.SessionsUsed,
		Urgency:      r.Urgency,
		ServiceType:  r.ServiceType,
		Notes:        r.Notes,
		IssuedAt:     r.IssuedAt,
		ExpiryDate:   r.ExpiryDate,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		DoctorID:     r.DoctorID,
		PatientID:    r.PatientID,
		PhysioID:     r.PhysioID,
	}
}
