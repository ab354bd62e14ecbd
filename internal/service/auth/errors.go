package auth

import "errors"

var (
	ErrInvalidEmail       = errors.New("A valid email address is required")
	ErrInvalidPhone       = errors.New("Invalid phone number")
	ErrPasswordTooShort   = errors.New("Password is too short")
	ErrInvalidRole        = errors.New("Role must be one of PATIENT, DOCTOR, PHYSIO")
	ErrEmailExists        = errors.New("User with this email already exists")
	ErrUsernameExists     = errors.New("User with this username already exists")
	ErrPhoneExists        = errors.New("User with this phone number already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrAccountDeactivated = errors.New("Account is deactivated")
	ErrAccountLocked      = errors.New("Too many failed login attempts, try again later")
	ErrInvalidToken       = errors.New("Invalid or expired token")
	ErrUserNotFound       = errors.New("User not found")
)
