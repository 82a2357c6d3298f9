package mocks_test

import (
	"context"
	"testing"

	"github.com/you/chainguard/domain"
	"github.com/you/chainguard/internal/mocks"
	"github.com/you/chainguard/internal/services"
)

// Example demonstrating how to use mocks in table-driven tests
// This file serves as documentation for the mock system
func TestMockUsageExample(t *testing.T) {
	tests := []struct {
		name          string
		code          string
		setupMocks    func(*mocks.MockCredentialService, *mocks.MockAuditLogger)
		expectedError error
		expectedAudit []domain.AuditEventType
	}{
		{
			name: "collaborator accepts the code",
			code: "123456",
			expectedAudit: []domain.AuditEventType{
				domain.SignupStartedEvent,
				domain.OTPIssuedEvent,
				domain.OTPVerifiedEvent,
			},
		},
		{
			name: "collaborator rejects the code",
			code: "123456",
			setupMocks: func(creds *mocks.MockCredentialService, audit *mocks.MockAuditLogger) {
				creds.ConfirmSignupFunc = func(ctx context.Context, pending *domain.PendingSignup, code string) (*domain.User, error) {
					return nil, domain.ErrOTPMismatch
				}
			},
			expectedError: domain.ErrOTPMismatch,
			expectedAudit: []domain.AuditEventType{
				domain.SignupStartedEvent,
				domain.OTPIssuedEvent,
				domain.OTPFailureEvent,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := mocks.NewMockCredentialService()
			audit := mocks.NewMockAuditLogger()
			if tt.setupMocks != nil {
				tt.setupMocks(creds, audit)
			}

			manager := services.NewSessionManager(creds, mocks.NewMockPasswordService(), audit, services.SessionConfig{})
			if _, err := manager.Signup(context.Background(), "Jane Doe", "jane@x.com", "+15551234567", "password1"); err != nil {
				t.Fatalf("signup: %v", err)
			}

			_, err := manager.VerifyOTP(context.Background(), tt.code)
			if tt.expectedError == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.expectedError != nil && err != tt.expectedError {
				t.Fatalf("expected %v, got %v", tt.expectedError, err)
			}

			got := audit.Types()
			if len(got) != len(tt.expectedAudit) {
				t.Fatalf("expected audit %v, got %v", tt.expectedAudit, got)
			}
			for i := range got {
				if got[i] != tt.expectedAudit[i] {
					t.Errorf("audit[%d]: expected %s, got %s", i, tt.expectedAudit[i], got[i])
				}
			}
		})
	}
}
