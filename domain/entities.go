package domain

import "time"

// OTP challenge defaults
const (
	OTPCodeLength = 6
	OTPTTL        = 300 * time.Second
)

// User represents the identity returned by the credential service
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// Session represents the authenticated principal held by the app
type Session struct {
	User          *User     `json:"user"`
	Authenticated bool      `json:"authenticated"`
	EstablishedAt time.Time `json:"established_at,omitempty"`
}

// NewSession creates an authenticated session for user
func NewSession(user *User, now time.Time) *Session {
	if user == nil {
		return &Session{}
	}
	return &Session{
		User:          user,
		Authenticated: true,
		EstablishedAt: now,
	}
}

// PendingSignup represents registration data awaiting OTP confirmation
type PendingSignup struct {
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// OTPChallenge represents one verification window
type OTPChallenge struct {
	TargetEmail string    `json:"target_email"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	CodeLength  int       `json:"code_length"`
	Expired     bool      `json:"expired"`
}

// NewOTPChallenge opens a verification window for email starting at now
func NewOTPChallenge(email string, now time.Time, ttl time.Duration) *OTPChallenge {
	if ttl <= 0 {
		ttl = OTPTTL
	}
	return &OTPChallenge{
		TargetEmail: email,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
		CodeLength:  OTPCodeLength,
	}
}

// IsExpired reports whether the window is closed at now
func (c *OTPChallenge) IsExpired(now time.Time) bool {
	return c.Expired || !now.Before(c.ExpiresAt)
}

// Remaining returns the time left in the window, never negative
func (c *OTPChallenge) Remaining(now time.Time) time.Duration {
	if c.IsExpired(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// FieldErrors maps a form field to its user-visible message
type FieldErrors map[string]string

// Add records msg for field unless the field already has one
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// Clear drops the message for field, as when the user edits it
func (fe FieldErrors) Clear(field string) {
	delete(fe, field)
}

// Empty reports whether no field has an error
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}
