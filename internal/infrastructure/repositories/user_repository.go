package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/you/chainguard/domain"
	"gorm.io/gorm"
)

// UserRepository implements domain.UserRepository using GORM
type UserRepository struct {
	db *gorm.DB
}

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Email        string    `gorm:"uniqueIndex;size:255"`
	FullName     string    `gorm:"size:255"`
	Phone        string    `gorm:"index;size:32"`
	PasswordHash string    `gorm:"column:password"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Migrate creates or updates the users table
func (r *UserRepository) Migrate() error {
	return r.db.AutoMigrate(&DBUser{})
}

// Create implements domain.UserRepository
func (r *UserRepository) Create(ctx context.Context, user *domain.User, passwordHash string) error {
	var count int64
	email := normalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Model(&DBUser{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrUserAlreadyExists
	}

	dbUser := &DBUser{
		ID:           user.ID,
		Email:        email,
		FullName:     user.FullName,
		Phone:        user.Phone,
		PasswordHash: passwordHash,
	}
	if err := r.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByEmail implements domain.UserRepository
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	dbUser, err := r.first(ctx, "email = ?", normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return dbToDomain(dbUser), nil
}

// FindByID implements domain.UserRepository
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	dbUser, err := r.first(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	return dbToDomain(dbUser), nil
}

// PasswordHash implements domain.UserRepository
func (r *UserRepository) PasswordHash(ctx context.Context, email string) (string, error) {
	dbUser, err := r.first(ctx, "email = ?", normalizeEmail(email))
	if err != nil {
		return "", err
	}
	return dbUser.PasswordHash, nil
}

func (r *UserRepository) first(ctx context.Context, query string, arg interface{}) (*DBUser, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where(query, arg).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &dbUser, nil
}

// dbToDomain converts database user to domain user
func dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:       dbUser.ID,
		Email:    dbUser.Email,
		FullName: dbUser.FullName,
		Phone:    dbUser.Phone,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ domain.UserRepository = (*UserRepository)(nil)
