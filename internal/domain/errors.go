package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by services and handlers. Handlers translate these
// to HTTP statuses; anything else surfaces as a generic 500.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrValidation         = errors.New("validation failed")
	ErrUpload             = errors.New("image upload failed")
)

// Validationf wraps ErrValidation with a client-facing message
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
