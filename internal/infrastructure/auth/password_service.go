package auth

import (
	"fmt"

	"github.com/you/chainguard/domain"
	"golang.org/x/crypto/bcrypt"
)

// BcryptPasswordService implements domain.PasswordService with bcrypt
type BcryptPasswordService struct {
	cost int
}

// NewPasswordService creates a bcrypt password service. A cost outside
// bcrypt's accepted range falls back to bcrypt.DefaultCost.
func NewPasswordService(cost int) *BcryptPasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordService{cost: cost}
}

// Hash implements domain.PasswordService
func (p *BcryptPasswordService) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hashed), nil
}

// Verify implements domain.PasswordService
func (p *BcryptPasswordService) Verify(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

var _ domain.PasswordService = (*BcryptPasswordService)(nil)
