package domain

import "context"

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User, passwordHash string) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	PasswordHash(ctx context.Context, email string) (string, error)
}

// ChallengeRepository stores issued OTP codes keyed by target email
type ChallengeRepository interface {
	Save(ctx context.Context, email, code string) error
	Find(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}

// CredentialService is the boundary collaborator that checks credentials
// and issues or confirms verification codes.
type CredentialService interface {
	Authenticate(ctx context.Context, email, password string) (*User, error)
	BeginSignup(ctx context.Context, pending *PendingSignup) error
	ResendCode(ctx context.Context, pending *PendingSignup) error
	ConfirmSignup(ctx context.Context, pending *PendingSignup, code string) (*User, error)
}

// AuthService defines the session manager operations used by the screen layer
type AuthService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Signup(ctx context.Context, fullName, email, phone, password string) (*PendingSignup, error)
	VerifyOTP(ctx context.Context, code string) (*Session, error)
	ResendOTP(ctx context.Context) (*OTPChallenge, error)
	CancelSignup()
	ExpireChallenge()
	Logout()
	Session() Session
	IsAuthenticated() bool
	IsLoading() bool
	Challenge() *OTPChallenge
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// NotificationService defines notification operations
type NotificationService interface {
	SendSMS(to, message string) error
	SendEmail(to, subject, body string) error
}
