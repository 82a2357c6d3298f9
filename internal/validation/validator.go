package validation

import (
	"regexp"
	"strings"

	"github.com/you/chainguard/domain"
)

// Password minimums per call site
const (
	LoginPasswordMin  = 6
	SignupPasswordMin = 8
)

// Form field names used as FieldErrors keys
const (
	FieldFullName = "fullName"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldPassword = "password"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)
)

// ValidateEmail reports whether s looks like local@domain.tld
func ValidateEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidatePhone accepts an optional leading + followed by at least ten
// digits, spaces or hyphens.
func ValidatePhone(s string) bool {
	return phoneRe.MatchString(s)
}

// ValidatePassword reports whether s has at least minLen characters
func ValidatePassword(s string, minLen int) bool {
	return len([]rune(s)) >= minLen
}

// LoginForm holds the login screen inputs
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate returns the field errors for the login form
func (f LoginForm) Validate() domain.FieldErrors {
	errs := domain.FieldErrors{}
	checkEmail(errs, f.Email)

	switch {
	case f.Password == "":
		errs.Add(FieldPassword, "Password is required")
	case !ValidatePassword(f.Password, LoginPasswordMin):
		errs.Add(FieldPassword, "Password must be at least 6 characters")
	}
	return errs
}

// SignupForm holds the signup screen inputs
type SignupForm struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Validate returns the field errors for the signup form
func (f SignupForm) Validate() domain.FieldErrors {
	errs := domain.FieldErrors{}

	if strings.TrimSpace(f.FullName) == "" {
		errs.Add(FieldFullName, "Full name is required")
	}

	checkEmail(errs, f.Email)

	switch {
	case f.Phone == "":
		errs.Add(FieldPhone, "Phone number is required")
	case !ValidatePhone(f.Phone):
		errs.Add(FieldPhone, "Please enter a valid phone number")
	}

	switch {
	case f.Password == "":
		errs.Add(FieldPassword, "Password is required")
	case !ValidatePassword(f.Password, SignupPasswordMin):
		errs.Add(FieldPassword, "Password must be at least 8 characters")
	}
	return errs
}

func checkEmail(errs domain.FieldErrors, email string) {
	switch {
	case email == "":
		errs.Add(FieldEmail, "Email is required")
	case !ValidateEmail(email):
		errs.Add(FieldEmail, "Please enter a valid email")
	}
}
