package mocks

import (
	"context"

	"github.com/you/chainguard/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	LoginFunc           func(ctx context.Context, email, password string) (*domain.Session, error)
	SignupFunc          func(ctx context.Context, fullName, email, phone, password string) (*domain.PendingSignup, error)
	VerifyOTPFunc       func(ctx context.Context, code string) (*domain.Session, error)
	ResendOTPFunc       func(ctx context.Context) (*domain.OTPChallenge, error)
	SessionFunc         func() domain.Session
	ChallengeFunc       func() *domain.OTPChallenge
	IsLoadingFunc       func() bool
	CancelSignupCalls   int
	ExpireChallengeCalls int
	LogoutCalls         int
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Login signs a user in
func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return &domain.Session{User: &domain.User{ID: "user-1", Email: email}, Authenticated: true}, nil
}

// Signup starts a signup awaiting verification
func (m *MockAuthService) Signup(ctx context.Context, fullName, email, phone, password string) (*domain.PendingSignup, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, fullName, email, phone, password)
	}
	return &domain.PendingSignup{FullName: fullName, Email: email, Phone: phone, PasswordHash: "hashed_" + password}, nil
}

// VerifyOTP completes the pending signup
func (m *MockAuthService) VerifyOTP(ctx context.Context, code string) (*domain.Session, error) {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, code)
	}
	// Default behavior: accept "123456" as valid OTP
	if code != "123456" {
		return nil, domain.ErrOTPMismatch
	}
	return &domain.Session{User: &domain.User{ID: "user-2"}, Authenticated: true}, nil
}

// ResendOTP issues a new challenge
func (m *MockAuthService) ResendOTP(ctx context.Context) (*domain.OTPChallenge, error) {
	if m.ResendOTPFunc != nil {
		return m.ResendOTPFunc(ctx)
	}
	return &domain.OTPChallenge{CodeLength: domain.OTPCodeLength}, nil
}

// CancelSignup discards the pending signup
func (m *MockAuthService) CancelSignup() {
	m.CancelSignupCalls++
}

// ExpireChallenge marks the active challenge expired
func (m *MockAuthService) ExpireChallenge() {
	m.ExpireChallengeCalls++
}

// Logout ends the session
func (m *MockAuthService) Logout() {
	m.LogoutCalls++
}

// Session returns the current session
func (m *MockAuthService) Session() domain.Session {
	if m.SessionFunc != nil {
		return m.SessionFunc()
	}
	return domain.Session{}
}

// IsAuthenticated reports whether Session is authenticated
func (m *MockAuthService) IsAuthenticated() bool {
	return m.Session().Authenticated
}

// IsLoading reports whether a call is in flight
func (m *MockAuthService) IsLoading() bool {
	if m.IsLoadingFunc != nil {
		return m.IsLoadingFunc()
	}
	return false
}

// Challenge returns the active challenge
func (m *MockAuthService) Challenge() *domain.OTPChallenge {
	if m.ChallengeFunc != nil {
		return m.ChallengeFunc()
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)
