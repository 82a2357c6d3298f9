package mocks

import (
	"context"

	"github.com/you/chainguard/domain"
)

// MockChallengeRepository implements domain.ChallengeRepository interface for testing.
// Without overrides it behaves like an in-memory store.
type MockChallengeRepository struct {
	SaveFunc   func(ctx context.Context, email, code string) error
	FindFunc   func(ctx context.Context, email string) (string, error)
	DeleteFunc func(ctx context.Context, email string) error

	Codes map[string]string
}

// NewMockChallengeRepository creates a new MockChallengeRepository with default behaviors
func NewMockChallengeRepository() *MockChallengeRepository {
	return &MockChallengeRepository{Codes: make(map[string]string)}
}

// Save stores code for email
func (m *MockChallengeRepository) Save(ctx context.Context, email, code string) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, email, code)
	}
	m.Codes[email] = code
	return nil
}

// Find returns the code stored for email
func (m *MockChallengeRepository) Find(ctx context.Context, email string) (string, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, email)
	}
	code, ok := m.Codes[email]
	if !ok {
		return "", domain.ErrOTPNotFound
	}
	return code, nil
}

// Delete removes the code stored for email
func (m *MockChallengeRepository) Delete(ctx context.Context, email string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, email)
	}
	delete(m.Codes, email)
	return nil
}

// Compile-time interface compliance verification
var _ domain.ChallengeRepository = (*MockChallengeRepository)(nil)
