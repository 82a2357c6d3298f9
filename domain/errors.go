package domain

import (
	"errors"
	"sort"
	"strings"
)

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// OTP errors
var (
	ErrOTPExpired        = errors.New("otp has expired")
	ErrOTPMismatch       = errors.New("otp does not match")
	ErrOTPNotFound       = errors.New("otp not found")
	ErrIncompleteCode    = errors.New("otp code is incomplete")
	ErrNoPendingSignup   = errors.New("no signup awaiting verification")
	ErrNoActiveChallenge = errors.New("no active otp challenge")
	ErrResendNotAllowed  = errors.New("otp resend not allowed yet")
)

// Collaborator errors
var (
	ErrNetworkFailure = errors.New("network failure")
)

// Flow errors
var (
	ErrInvalidTransition = errors.New("invalid flow transition")
)

// ErrValidation is matched by every *ValidationError
var ErrValidation = errors.New("validation failed")

// ValidationError carries field-level messages produced by form validation
type ValidationError struct {
	Fields FieldErrors
}

// NewValidationError wraps fields, or returns nil when there are none
func NewValidationError(fields FieldErrors) error {
	if fields.Empty() {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) true
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
