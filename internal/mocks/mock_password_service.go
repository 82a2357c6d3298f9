package mocks

import "github.com/you/chainguard/domain"

// fakeHashPrefix marks a password as hashed by MockPasswordService
const fakeHashPrefix = "hashed_"

// MockPasswordService stands in for bcrypt. Hashes are the password with a
// fixed prefix so tests can predict what a signup stores.
type MockPasswordService struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(hashedPassword, password string) bool

	// Hashed lists every password handed to Hash, in call order
	Hashed []string
}

// NewMockPasswordService creates a MockPasswordService using the prefix scheme
func NewMockPasswordService() *MockPasswordService {
	return &MockPasswordService{}
}

// Hash records password and returns its predictable hash
func (m *MockPasswordService) Hash(password string) (string, error) {
	m.Hashed = append(m.Hashed, password)
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return fakeHashPrefix + password, nil
}

// Verify accepts password when hashedPassword is its prefixed form
func (m *MockPasswordService) Verify(hashedPassword, password string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hashedPassword, password)
	}
	return hashedPassword == fakeHashPrefix+password
}

var _ domain.PasswordService = (*MockPasswordService)(nil)
