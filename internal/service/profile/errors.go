package profile

import "errors"

var (
	ErrUserNotFound = errors.New("User not found")

	ErrNotDoctor             = errors.New("User is not registered as a doctor")
	ErrDoctorProfileExists   = errors.New("Doctor profile already exists")
	ErrDoctorProfileNotFound = errors.New("Doctor profile not found")

	ErrNotPhysio             = errors.New("User is not registered as a physiotherapist")
	ErrPhysioProfileExists   = errors.New("Physiotherapist profile already exists")
	ErrPhysioProfileNotFound = errors.New("Physiotherapist profile not found")

	ErrNotPatient             = errors.New("User is not registered as a patient")
	ErrPatientProfileExists   = errors.New("Patient profile already exists")
	ErrPatientProfileNotFound = errors.New("Patient profile not found")

	ErrLicenseTakenByDoctor       = errors.New("This license number is already registered to another doctor")
	ErrLicenseTakenByPhysio       = errors.New("This license number is already registered to a physiotherapist")
	ErrPhysioLicenseTakenByPhysio = errors.New("This license number is already registered to another physiotherapist")
	ErrPhysioLicenseTakenByDoctor = errors.New("This license number is already registered to a doctor")
)

// ValidationError is a malformed profile payload. It maps to BadRequest.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }
