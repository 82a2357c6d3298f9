package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/you/chainguard/domain"
	"github.com/you/chainguard/internal/clock"
)

// State is what observers of the session manager receive
type State struct {
	Session domain.Session
	Loading bool
}

// SessionConfig tunes the session manager
type SessionConfig struct {
	ChallengeTTL time.Duration
	Clock        clock.Clock
	Logger       *log.Logger
}

// SessionManager owns the current session and the signup verification
// state. Credential checks are delegated to a domain.CredentialService and
// run without holding the lock.
type SessionManager struct {
	credentials domain.CredentialService
	passwordSvc domain.PasswordService
	auditor     domain.AuditLogger
	clock       clock.Clock
	logger      *log.Logger
	ttl         time.Duration

	mu            sync.Mutex
	user          *domain.User
	establishedAt time.Time
	pending       *domain.PendingSignup
	challenge     *domain.OTPChallenge
	inFlight      int

	obsMu     sync.Mutex
	observers map[int]func(State)
	nextObs   int
}

// NewSessionManager creates an unauthenticated session manager
func NewSessionManager(
	credentials domain.CredentialService,
	passwordSvc domain.PasswordService,
	auditor domain.AuditLogger,
	cfg SessionConfig,
) *SessionManager {
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = domain.OTPTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	return &SessionManager{
		credentials: credentials,
		passwordSvc: passwordSvc,
		auditor:     auditor,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
		ttl:         cfg.ChallengeTTL,
		observers:   make(map[int]func(State)),
	}
}

// Login implements domain.AuthService
func (m *SessionManager) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	m.begin()
	user, err := m.credentials.Authenticate(ctx, email, password)
	if err != nil {
		m.end(nil)
		err = m.classify("login", err, domain.ErrInvalidCredentials, domain.ErrUserNotFound)
		if errors.Is(err, domain.ErrUserNotFound) {
			err = domain.ErrInvalidCredentials
		}
		m.audit(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, email).WithError(err))
		return nil, err
	}
	if user == nil {
		m.end(nil)
		return nil, fmt.Errorf("%w: empty identity from credential service", domain.ErrNetworkFailure)
	}

	var session domain.Session
	m.end(func() {
		m.user = user
		m.establishedAt = m.clock.Now()
		session = m.sessionLocked()
	})

	m.audit(ctx, domain.NewAuditEvent(domain.UserLoginEvent, email).WithUser(user.ID))
	return &session, nil
}

// Signup implements domain.AuthService. Field validation is the caller's job.
func (m *SessionManager) Signup(ctx context.Context, fullName, email, phone, password string) (*domain.PendingSignup, error) {
	m.begin()
	hash, err := m.passwordSvc.Hash(password)
	if err != nil {
		m.end(nil)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	pending := &domain.PendingSignup{
		FullName:     fullName,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		CreatedAt:    m.clock.Now(),
	}

	if err := m.credentials.BeginSignup(ctx, pending); err != nil {
		m.end(nil)
		err = m.classify("signup", err, domain.ErrUserAlreadyExists)
		m.audit(ctx, domain.NewAuditEvent(domain.SignupStartedEvent, email).WithError(err))
		return nil, err
	}

	var out domain.PendingSignup
	m.end(func() {
		m.pending = pending
		m.challenge = domain.NewOTPChallenge(email, m.clock.Now(), m.ttl)
		out = *pending
	})

	m.audit(ctx, domain.NewAuditEvent(domain.SignupStartedEvent, email))
	m.audit(ctx, domain.NewAuditEvent(domain.OTPIssuedEvent, email))
	return &out, nil
}

// VerifyOTP implements domain.AuthService. An expired challenge fails
// before the code is looked at.
func (m *SessionManager) VerifyOTP(ctx context.Context, code string) (*domain.Session, error) {
	m.mu.Lock()
	pending, challenge := m.pending, m.challenge
	if pending == nil || challenge == nil {
		m.mu.Unlock()
		return nil, domain.ErrNoPendingSignup
	}
	if challenge.IsExpired(m.clock.Now()) {
		challenge.Expired = true
		m.mu.Unlock()
		m.audit(ctx, domain.NewAuditEvent(domain.OTPFailureEvent, pending.Email).WithError(domain.ErrOTPExpired))
		return nil, domain.ErrOTPExpired
	}
	m.mu.Unlock()

	if !wellFormedCode(code) {
		return nil, fmt.Errorf("%w: %w", domain.ErrOTPMismatch, domain.ErrIncompleteCode)
	}

	m.begin()
	user, err := m.credentials.ConfirmSignup(ctx, pending, code)
	if err != nil {
		m.end(nil)
		if errors.Is(err, domain.ErrOTPNotFound) {
			err = domain.ErrOTPExpired
		}
		err = m.classify("verify otp", err, domain.ErrOTPMismatch, domain.ErrOTPExpired)
		m.audit(ctx, domain.NewAuditEvent(domain.OTPFailureEvent, pending.Email).WithError(err))
		return nil, err
	}
	if user == nil {
		user = &domain.User{Email: pending.Email, FullName: pending.FullName, Phone: pending.Phone}
	}

	var (
		session    domain.Session
		superseded bool
	)
	m.end(func() {
		if m.pending != pending {
			superseded = true
			return
		}
		m.pending = nil
		m.challenge = nil
		m.user = user
		m.establishedAt = m.clock.Now()
		session = m.sessionLocked()
	})
	if superseded {
		return nil, domain.ErrNoPendingSignup
	}

	m.audit(ctx, domain.NewAuditEvent(domain.OTPVerifiedEvent, pending.Email).WithUser(user.ID))
	return &session, nil
}

// ResendOTP implements domain.AuthService. It supersedes the active
// challenge with a fresh window.
func (m *SessionManager) ResendOTP(ctx context.Context) (*domain.OTPChallenge, error) {
	m.mu.Lock()
	pending := m.pending
	m.mu.Unlock()
	if pending == nil {
		return nil, domain.ErrNoPendingSignup
	}

	m.begin()
	if err := m.credentials.ResendCode(ctx, pending); err != nil {
		m.end(nil)
		return nil, m.classify("resend otp", err)
	}

	var out *domain.OTPChallenge
	m.end(func() {
		if m.pending != pending {
			return
		}
		m.challenge = domain.NewOTPChallenge(pending.Email, m.clock.Now(), m.ttl)
		c := *m.challenge
		out = &c
	})
	if out == nil {
		return nil, domain.ErrNoPendingSignup
	}

	m.audit(ctx, domain.NewAuditEvent(domain.OTPIssuedEvent, pending.Email).WithMetadata("resend", true))
	return out, nil
}

// CancelSignup implements domain.AuthService
func (m *SessionManager) CancelSignup() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.challenge = nil
	m.mu.Unlock()

	if pending == nil {
		return
	}
	m.notify()
	m.audit(context.Background(), domain.NewAuditEvent(domain.SignupCancelledEvent, pending.Email))
}

// ExpireChallenge implements domain.AuthService; the countdown calls it
// when it runs out.
func (m *SessionManager) ExpireChallenge() {
	m.mu.Lock()
	c := m.challenge
	if c == nil || c.Expired {
		m.mu.Unlock()
		return
	}
	c.Expired = true
	email := c.TargetEmail
	m.mu.Unlock()

	m.audit(context.Background(), domain.NewAuditEvent(domain.OTPChallengeExpiredEvt, email))
}

// Logout implements domain.AuthService
func (m *SessionManager) Logout() {
	m.mu.Lock()
	user := m.user
	m.user = nil
	m.establishedAt = time.Time{}
	m.mu.Unlock()

	if user == nil {
		return
	}
	m.notify()
	m.audit(context.Background(), domain.NewAuditEvent(domain.UserLogoutEvent, user.Email).WithUser(user.ID))
}

// Session implements domain.AuthService
func (m *SessionManager) Session() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionLocked()
}

// IsAuthenticated implements domain.AuthService
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

// CurrentUser returns a copy of the signed-in user, or nil
func (m *SessionManager) CurrentUser() *domain.User {
	return m.Session().User
}

// IsLoading implements domain.AuthService
func (m *SessionManager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight > 0
}

// Challenge implements domain.AuthService
func (m *SessionManager) Challenge() *domain.OTPChallenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.challenge == nil {
		return nil
	}
	c := *m.challenge
	if c.IsExpired(m.clock.Now()) {
		c.Expired = true
	}
	return &c
}

// PendingSignup returns a copy of the signup awaiting verification, or nil
func (m *SessionManager) PendingSignup() *domain.PendingSignup {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return nil
	}
	p := *m.pending
	return &p
}

// Subscribe registers fn for state changes and returns its cancel func
func (m *SessionManager) Subscribe(fn func(State)) func() {
	m.obsMu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.obsMu.Unlock()

	return func() {
		m.obsMu.Lock()
		delete(m.observers, id)
		m.obsMu.Unlock()
	}
}

func (m *SessionManager) sessionLocked() domain.Session {
	if m.user == nil {
		return domain.Session{}
	}
	u := *m.user
	return domain.Session{
		User:          &u,
		Authenticated: true,
		EstablishedAt: m.establishedAt,
	}
}

func (m *SessionManager) begin() {
	m.mu.Lock()
	m.inFlight++
	m.mu.Unlock()
	m.notify()
}

// end clears the loading flag and applies fn under the same lock
func (m *SessionManager) end(fn func()) {
	m.mu.Lock()
	m.inFlight--
	if fn != nil {
		fn()
	}
	m.mu.Unlock()
	m.notify()
}

func (m *SessionManager) notify() {
	m.mu.Lock()
	st := State{Session: m.sessionLocked(), Loading: m.inFlight > 0}
	m.mu.Unlock()

	m.obsMu.Lock()
	fns := make([]func(State), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.obsMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// classify passes typed failures through and folds everything else into
// ErrNetworkFailure.
func (m *SessionManager) classify(op string, err error, known ...error) error {
	for _, k := range known {
		if errors.Is(err, k) {
			return err
		}
	}
	m.logger.Printf("CREDENTIALS_FAILURE: op=%q error=%v", op, err)
	return fmt.Errorf("%w: %s: %v", domain.ErrNetworkFailure, op, err)
}

func (m *SessionManager) audit(ctx context.Context, event *domain.AuditEvent) {
	if m.auditor == nil {
		return
	}
	if err := m.auditor.LogEvent(ctx, event); err != nil {
		m.logger.Printf("AUDIT_FAILED: event=%s error=%v", event.EventType, err)
	}
}

func wellFormedCode(code string) bool {
	if len(code) != domain.OTPCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

var _ domain.AuthService = (*SessionManager)(nil)
