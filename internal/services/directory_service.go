package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/you/chainguard/domain"
)

// DirectoryConfig tunes code issuing for the directory credential service
type DirectoryConfig struct {
	CodeLength int
	CodeTTL    time.Duration
	Logger     *log.Logger
}

// DirectoryService implements domain.CredentialService against the user
// directory, the code store and the notification channel.
type DirectoryService struct {
	userRepo        domain.UserRepository
	challengeRepo   domain.ChallengeRepository
	passwordSvc     domain.PasswordService
	notificationSvc domain.NotificationService
	config          DirectoryConfig
	logger          *log.Logger
}

// NewDirectoryService creates a new directory-backed credential service
func NewDirectoryService(
	userRepo domain.UserRepository,
	challengeRepo domain.ChallengeRepository,
	passwordSvc domain.PasswordService,
	notificationSvc domain.NotificationService,
	config DirectoryConfig,
) *DirectoryService {
	if config.CodeLength <= 0 {
		config.CodeLength = domain.OTPCodeLength
	}
	if config.CodeTTL <= 0 {
		config.CodeTTL = domain.OTPTTL
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DirectoryService{
		userRepo:        userRepo,
		challengeRepo:   challengeRepo,
		passwordSvc:     passwordSvc,
		notificationSvc: notificationSvc,
		config:          config,
		logger:          logger,
	}
}

// Authenticate implements domain.CredentialService
func (s *DirectoryService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	hash, err := s.userRepo.PasswordHash(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load password hash: %w", err)
	}

	if !s.passwordSvc.Verify(hash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// BeginSignup implements domain.CredentialService
func (s *DirectoryService) BeginSignup(ctx context.Context, pending *domain.PendingSignup) error {
	existing, err := s.userRepo.FindByEmail(ctx, pending.Email)
	if err == nil && existing != nil {
		return domain.ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("failed to check existing user: %w", err)
	}

	return s.issueCode(ctx, pending)
}

// ResendCode implements domain.CredentialService
func (s *DirectoryService) ResendCode(ctx context.Context, pending *domain.PendingSignup) error {
	return s.issueCode(ctx, pending)
}

// ConfirmSignup implements domain.CredentialService
func (s *DirectoryService) ConfirmSignup(ctx context.Context, pending *domain.PendingSignup, code string) (*domain.User, error) {
	stored, err := s.challengeRepo.Find(ctx, pending.Email)
	if err != nil {
		if errors.Is(err, domain.ErrOTPNotFound) {
			return nil, domain.ErrOTPExpired
		}
		return nil, fmt.Errorf("failed to load otp: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return nil, domain.ErrOTPMismatch
	}

	user := &domain.User{
		ID:       uuid.NewString(),
		Email:    pending.Email,
		FullName: pending.FullName,
		Phone:    pending.Phone,
	}
	if err := s.userRepo.Create(ctx, user, pending.PasswordHash); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.challengeRepo.Delete(ctx, pending.Email); err != nil {
		s.logger.Printf("OTP_CLEANUP_FAILED: email=%s error=%v", pending.Email, err)
	}
	return user, nil
}

func (s *DirectoryService) issueCode(ctx context.Context, pending *domain.PendingSignup) error {
	code, err := s.generateSecureCode()
	if err != nil {
		return fmt.Errorf("failed to generate OTP code: %w", err)
	}

	if err := s.challengeRepo.Save(ctx, pending.Email, code); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	minutes := int(s.config.CodeTTL.Minutes())
	body := fmt.Sprintf("Your verification code is: %s. Valid for %d minutes.", code, minutes)
	if err := s.notificationSvc.SendEmail(pending.Email, "Verify your email", body); err != nil {
		_ = s.challengeRepo.Delete(ctx, pending.Email)
		return fmt.Errorf("failed to send OTP email: %w", err)
	}

	if pending.Phone != "" {
		if err := s.notificationSvc.SendSMS(pending.Phone, body); err != nil {
			s.logger.Printf("OTP_SMS_FAILED: phone=%s error=%v", pending.Phone, err)
		}
	}
	return nil
}

// generateSecureCode generates a cryptographically secure OTP code
func (s *DirectoryService) generateSecureCode() (string, error) {
	digits := make([]byte, s.config.CodeLength)

	for i := 0; i < s.config.CodeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}

	return string(digits), nil
}

var _ domain.CredentialService = (*DirectoryService)(nil)
