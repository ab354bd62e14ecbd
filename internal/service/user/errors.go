package user

import "errors"

var (
	ErrUserNotFound = errors.New("User not found")
	ErrInvalidRole  = errors.New("Role must be one of PATIENT, DOCTOR, PHYSIO, ADMIN")
)
