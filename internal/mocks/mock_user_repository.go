package mocks

import (
	"context"

	"github.com/you/chainguard/domain"
)

// MockUserRepository implements domain.UserRepository interface for testing
type MockUserRepository struct {
	CreateFunc       func(ctx context.Context, user *domain.User, passwordHash string) error
	FindByEmailFunc  func(ctx context.Context, email string) (*domain.User, error)
	FindByIDFunc     func(ctx context.Context, id string) (*domain.User, error)
	PasswordHashFunc func(ctx context.Context, email string) (string, error)

	Created []*domain.User
}

// NewMockUserRepository creates a new MockUserRepository with default behaviors
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User, passwordHash string) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user, passwordHash)
	}
	// Default behavior: remember and succeed
	m.Created = append(m.Created, user)
	return nil
}

// FindByEmail finds a user by email
func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// FindByID finds a user by ID
func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// PasswordHash returns the stored hash for email
func (m *MockUserRepository) PasswordHash(ctx context.Context, email string) (string, error) {
	if m.PasswordHashFunc != nil {
		return m.PasswordHashFunc(ctx, email)
	}
	// Default behavior: not found
	return "", domain.ErrUserNotFound
}

// Compile-time interface compliance verification
var _ domain.UserRepository = (*MockUserRepository)(nil)
