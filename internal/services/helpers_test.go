package services

import (
	"testing"
	"time"

	"github.com/you/chainguard/domain"
	"github.com/you/chainguard/internal/clock"
	"github.com/you/chainguard/internal/mocks"
)

var testEpoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type sessionFixture struct {
	manager     *SessionManager
	credentials *mocks.MockCredentialService
	passwords   *mocks.MockPasswordService
	auditor     *mocks.MockAuditLogger
	clock       *clock.Fake
}

// createSessionManagerForTest creates a SessionManager with mock dependencies for testing
func createSessionManagerForTest(t *testing.T) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		credentials: mocks.NewMockCredentialService(),
		passwords:   mocks.NewMockPasswordService(),
		auditor:     mocks.NewMockAuditLogger(),
		clock:       clock.NewFake(testEpoch),
	}
	f.manager = NewSessionManager(f.credentials, f.passwords, f.auditor, SessionConfig{
		ChallengeTTL: domain.OTPTTL,
		Clock:        f.clock,
	})
	return f
}

// createPendingSignup creates signup data as the session manager would hold it
func createPendingSignup(t *testing.T) *domain.PendingSignup {
	t.Helper()

	return &domain.PendingSignup{
		FullName:     "Jane Doe",
		Email:        "jane@x.com",
		Phone:        "+15551234567",
		PasswordHash: "hashed_password1",
		CreatedAt:    testEpoch,
	}
}
