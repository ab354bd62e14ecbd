package referral

import (
	"errors"
	"strings"
)

// Messages are returned to API clients verbatim.
var (
	ErrNotDoctor           = errors.New("Only doctors can create referrals")
	ErrNoDoctorProfile     = errors.New("Doctor profile not completed. Please complete your profile to create referrals.")
	ErrProfileIncomplete   = errors.New("Profile incomplete")
	ErrPhysioNotFound      = errors.New("Physiotherapist not found")
	ErrPatientNotFound     = errors.New("Patient not found")
	ErrNoPatientProfile    = errors.New("Patient profile not found")
	ErrPatientRoleConflict = errors.New("A user with this email or phone already exists with a different role")
	ErrReferralNotFound    = errors.New("Referral not found")
	ErrAccessDenied        = errors.New("Access denied")
	ErrNotIssuingDoctor    = errors.New("Only the issuing doctor can update this referral")
	ErrInvalidTransition   = errors.New("Invalid status transition")
	ErrUnknownStatus       = errors.New("Unknown referral status")
)

// ValidationError is a malformed request. It maps to BadRequest.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// IncompleteProfileError lists every required doctor profile field that is
// missing, in a fixed order.
type IncompleteProfileError struct {
	Missing []string
}

func (e *IncompleteProfileError) Error() string {
	return "Profile incomplete. Missing required fields: " + strings.Join(e.Missing, ", ")
}

func (e *IncompleteProfileError) Is(target error) bool { return target == ErrProfileIncomplete }
