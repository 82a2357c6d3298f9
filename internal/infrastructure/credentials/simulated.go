package credentials

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/you/chainguard/domain"
)

// Simulated implements domain.CredentialService without a backend. Every
// call waits a fixed delay and succeeds; any six-digit code is accepted.
type Simulated struct {
	delay time.Duration
}

// NewSimulated creates a simulated credential service
func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{delay: delay}
}

// Authenticate implements domain.CredentialService
func (s *Simulated) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return &domain.User{
		ID:       idFor(email),
		Email:    email,
		FullName: "John Doe",
		Phone:    "+1234567890",
	}, nil
}

// BeginSignup implements domain.CredentialService
func (s *Simulated) BeginSignup(ctx context.Context, pending *domain.PendingSignup) error {
	return s.wait(ctx)
}

// ResendCode implements domain.CredentialService
func (s *Simulated) ResendCode(ctx context.Context, pending *domain.PendingSignup) error {
	return s.wait(ctx)
}

// ConfirmSignup implements domain.CredentialService
// TODO: replace accept-any-code with a server-issued code once the product
// decides how codes are delivered; the directory driver already does this.
func (s *Simulated) ConfirmSignup(ctx context.Context, pending *domain.PendingSignup, code string) (*domain.User, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if len(code) != domain.OTPCodeLength {
		return nil, domain.ErrOTPMismatch
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return nil, domain.ErrOTPMismatch
		}
	}
	return &domain.User{
		ID:       idFor(pending.Email),
		Email:    pending.Email,
		FullName: pending.FullName,
		Phone:    pending.Phone,
	}, nil
}

func (s *Simulated) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// idFor derives a stable identifier from email
func idFor(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
}

var _ domain.CredentialService = (*Simulated)(nil)
