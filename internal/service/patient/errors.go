package patient

import "errors"

var (
	ErrPatientNotFound = errors.New("Patient not found")
	ErrAccessDenied    = errors.New("Only doctors can search patients")
)
