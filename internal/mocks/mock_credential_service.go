package mocks

import (
	"context"

	"github.com/you/chainguard/domain"
)

// MockCredentialService implements domain.CredentialService interface for testing
type MockCredentialService struct {
	AuthenticateFunc  func(ctx context.Context, email, password string) (*domain.User, error)
	BeginSignupFunc   func(ctx context.Context, pending *domain.PendingSignup) error
	ResendCodeFunc    func(ctx context.Context, pending *domain.PendingSignup) error
	ConfirmSignupFunc func(ctx context.Context, pending *domain.PendingSignup, code string) (*domain.User, error)

	ResendCalls int
}

// NewMockCredentialService creates a new MockCredentialService with default behaviors
func NewMockCredentialService() *MockCredentialService {
	return &MockCredentialService{}
}

// Authenticate checks email and password
func (m *MockCredentialService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, email, password)
	}
	// Default behavior: accept anyone
	return &domain.User{
		ID:       "user-1",
		Email:    email,
		FullName: "John Doe",
		Phone:    "+1234567890",
	}, nil
}

// BeginSignup registers pending signup data and issues a code
func (m *MockCredentialService) BeginSignup(ctx context.Context, pending *domain.PendingSignup) error {
	if m.BeginSignupFunc != nil {
		return m.BeginSignupFunc(ctx, pending)
	}
	// Default behavior: success
	return nil
}

// ResendCode issues a fresh code for the pending signup
func (m *MockCredentialService) ResendCode(ctx context.Context, pending *domain.PendingSignup) error {
	m.ResendCalls++
	if m.ResendCodeFunc != nil {
		return m.ResendCodeFunc(ctx, pending)
	}
	// Default behavior: success
	return nil
}

// ConfirmSignup checks code and returns the new identity
func (m *MockCredentialService) ConfirmSignup(ctx context.Context, pending *domain.PendingSignup, code string) (*domain.User, error) {
	if m.ConfirmSignupFunc != nil {
		return m.ConfirmSignupFunc(ctx, pending, code)
	}
	// Default behavior: accept "123456" as valid OTP
	if code != "123456" {
		return nil, domain.ErrOTPMismatch
	}
	return &domain.User{
		ID:       "user-2",
		Email:    pending.Email,
		FullName: pending.FullName,
		Phone:    pending.Phone,
	}, nil
}

// Compile-time interface compliance verification
var _ domain.CredentialService = (*MockCredentialService)(nil)
