package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/chainguard/domain"
	"github.com/you/chainguard/internal/clock"
	"github.com/you/chainguard/internal/mocks"
	"github.com/you/chainguard/internal/services"
	"github.com/you/chainguard/internal/validation"
)

var testEpoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// recordingNavigator remembers every step it is sent to
type recordingNavigator struct {
	mu     sync.Mutex
	steps  []Step
	params []map[string]string
}

func (n *recordingNavigator) Navigate(step Step, params map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.steps = append(n.steps, step)
	n.params = append(n.params, params)
}

func (n *recordingNavigator) Steps() []Step {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Step(nil), n.steps...)
}

type flowFixture struct {
	controller  *Controller
	manager     *services.SessionManager
	credentials *mocks.MockCredentialService
	nav         *recordingNavigator
	clock       *clock.Fake
}

// createControllerForTest wires a controller to a real session manager over
// a mock collaborator. The countdown never ticks by itself; tests drive it.
func createControllerForTest(t *testing.T) *flowFixture {
	t.Helper()

	f := &flowFixture{
		credentials: mocks.NewMockCredentialService(),
		nav:         &recordingNavigator{},
		clock:       clock.NewFake(testEpoch),
	}
	f.manager = services.NewSessionManager(f.credentials, mocks.NewMockPasswordService(), mocks.NewMockAuditLogger(), services.SessionConfig{
		ChallengeTTL: domain.OTPTTL,
		Clock:        f.clock,
	})
	f.controller = NewController(f.manager, f.nav, Config{TickInterval: time.Hour})
	t.Cleanup(f.controller.Close)
	return f
}

var (
	validSignup = validation.SignupForm{
		FullName: "Jane Doe",
		Email:    "jane@x.com",
		Phone:    "+15551234567",
		Password: "password1",
	}
	validLogin = validation.LoginForm{Email: "jane@x.com", Password: "secret1"}
)

// toOTP boots and walks the signup path up to code entry
func toOTP(t *testing.T, f *flowFixture) {
	t.Helper()
	require.NoError(t, f.controller.Boot())
	require.NoError(t, f.controller.GoToSignup())
	_, err := f.controller.SubmitSignup(context.Background(), validSignup)
	require.NoError(t, err)
	require.Equal(t, StepOTPVerification, f.controller.Step())
}

func enterCode(t *testing.T, f *flowFixture, code string) (*domain.Session, error) {
	t.Helper()
	var (
		session *domain.Session
		err     error
	)
	for i := 0; i < len(code); i++ {
		session, err = f.controller.EnterDigit(context.Background(), i, code[i:i+1])
	}
	return session, err
}

func TestController_Boot(t *testing.T) {
	t.Run("unauthenticated lands on welcome", func(t *testing.T) {
		f := createControllerForTest(t)
		assert.Equal(t, StepLoading, f.controller.Step())

		require.NoError(t, f.controller.Boot())
		assert.Equal(t, StepWelcome, f.controller.Step())
		assert.Equal(t, []Step{StepWelcome}, f.nav.Steps())

		assert.ErrorIs(t, f.controller.Boot(), domain.ErrInvalidTransition)
		assert.ErrorIs(t, f.controller.Back(), domain.ErrInvalidTransition, "loading is not a back target")
	})

	t.Run("existing session lands on app", func(t *testing.T) {
		f := createControllerForTest(t)
		_, err := f.manager.Login(context.Background(), "jane@x.com", "secret1")
		require.NoError(t, err)

		require.NoError(t, f.controller.Boot())
		assert.Equal(t, StepApp, f.controller.Step())
	})
}

func TestController_LoginPath(t *testing.T) {
	f := createControllerForTest(t)
	require.NoError(t, f.controller.Boot())
	require.NoError(t, f.controller.GoToLogin())

	session, err := f.controller.SubmitLogin(context.Background(), validLogin)
	require.NoError(t, err)
	assert.True(t, session.Authenticated)
	assert.Equal(t, StepApp, f.controller.Step())
	assert.Equal(t, []Step{StepWelcome, StepLogin, StepApp}, f.nav.Steps())

	assert.ErrorIs(t, f.controller.Back(), domain.ErrInvalidTransition, "app does not go back into login")
}

func TestController_SubmitLoginValidation(t *testing.T) {
	f := createControllerForTest(t)
	require.NoError(t, f.controller.Boot())
	require.NoError(t, f.controller.GoToLogin())

	calls := 0
	f.credentials.AuthenticateFunc = func(ctx context.Context, email, password string) (*domain.User, error) {
		calls++
		return &domain.User{ID: "u1", Email: email}, nil
	}

	_, err := f.controller.SubmitLogin(context.Background(), validation.LoginForm{Email: "bad", Password: "123"})
	require.ErrorIs(t, err, domain.ErrValidation)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Please enter a valid email", verr.Fields[validation.FieldEmail])
	assert.Equal(t, "Password must be at least 6 characters", verr.Fields[validation.FieldPassword])
	assert.Equal(t, 0, calls, "invalid forms never reach the collaborator")
	assert.Equal(t, StepLogin, f.controller.Step())

	f.controller.EditField(validation.FieldEmail)
	assert.NotContains(t, f.controller.FieldErrors(), validation.FieldEmail)
	assert.Contains(t, f.controller.FieldErrors(), validation.FieldPassword)
}

func TestController_LoginFailureStaysOnLogin(t *testing.T) {
	f := createControllerForTest(t)
	require.NoError(t, f.controller.Boot())
	require.NoError(t, f.controller.GoToLogin())
	f.credentials.AuthenticateFunc = func(ctx context.Context, email, password string) (*domain.User, error) {
		return nil, domain.ErrInvalidCredentials
	}

	_, err := f.controller.SubmitLogin(context.Background(), validLogin)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, StepLogin, f.controller.Step())
	assert.False(t, f.manager.IsLoading())
}

func TestController_SignupPath(t *testing.T) {
	f := createControllerForTest(t)
	toOTP(t, f)

	step, total := f.controller.Progress()
	assert.Equal(t, 2, step)
	assert.Equal(t, 3, total)
	assert.True(t, f.controller.Timer().Running(), "countdown starts on entering verification")

	view := f.controller.View()
	assert.Equal(t, "jane@x.com", view.Email)
	assert.Equal(t, "5:00", view.Countdown)
	assert.False(t, view.ResendAllowed)
	assert.False(t, view.CanVerify)

	session, err := enterCode(t, f, "123456")
	require.NoError(t, err)
	require.NotNil(t, session, "completing the code submits it")
	assert.Equal(t, "jane@x.com", session.User.Email)

	assert.Equal(t, StepApp, f.controller.Step())
	assert.False(t, f.controller.Timer().Running(), "countdown stops on leaving verification")
	assert.Equal(t, []Step{StepWelcome, StepSignup, StepOTPVerification, StepApp}, f.nav.Steps())

	step, total = f.controller.Progress()
	assert.Equal(t, 3, step)
	assert.Equal(t, 3, total)
}

func TestController_SignupProgressAndValidation(t *testing.T) {
	f := createControllerForTest(t)
	require.NoError(t, f.controller.Boot())
	require.NoError(t, f.controller.GoToSignup())

	step, total := f.controller.Progress()
	assert.Equal(t, 1, step)
	assert.Equal(t, 3, total)

	_, err := f.controller.SubmitSignup(context.Background(), validation.SignupForm{})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, f.controller.FieldErrors(), 4)
	assert.Equal(t, StepSignup, f.controller.Step())
	assert.Nil(t, f.manager.PendingSignup())
}

func TestController_WrongCodeStaysOnVerification(t *testing.T) {
	f := createControllerForTest(t)
	toOTP(t, f)

	session, err := enterCode(t, f, "654321")
	assert.Nil(t, session)
	assert.ErrorIs(t, err, domain.ErrOTPMismatch)
	assert.Equal(t, StepOTPVerification, f.controller.Step())

	// pasting a different code submits it
	session, err = f.controller.EnterDigit(context.Background(), 0, "123456")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, StepApp, f.controller.Step())
}

func TestController_SubmitOTP(t *testing.T) {
	f := createControllerForTest(t)
	toOTP(t, f)

	_, err := f.controller.EnterDigit(context.Background(), 0, "123")
	require.NoError(t, err)

	_, err = f.controller.SubmitOTP(context.Background())
	assert.ErrorIs(t, err, domain.ErrIncompleteCode)
	assert.Equal(t, StepOTPVerification, f.controller.Step())

	require.NoError(t, f.controller.Backspace(3))
	assert.Equal(t, 2, f.controller.View().Focus)
}

func TestController_ExpiryAndResend(t *testing.T) {
	f := createControllerForTest(t)
	toOTP(t, f)
	timer := f.controller.Timer()

	_, err := f.controller.Resend(context.Background())
	assert.ErrorIs(t, err, domain.ErrResendNotAllowed)

	for i := 0; i < 299; i++ {
		timer.Tick()
	}
	assert.False(t, timer.IsResendAllowed())
	timer.Tick()
	assert.True(t, timer.IsResendAllowed())
	assert.True(t, f.manager.Challenge().Expired, "countdown expiry marks the challenge")

	_, err = enterCode(t, f, "123456")
	assert.ErrorIs(t, err, domain.ErrOTPExpired)

	challenge, err := f.controller.Resend(context.Background())
	require.NoError(t, err)
	assert.False(t, challenge.Expired)
	assert.Equal(t, 1, f.credentials.ResendCalls)

	view := f.controller.View()
	assert.Equal(t, []string{"", "", "", "", "", ""}, view.Slots, "resend clears the entered code")
	assert.Equal(t, 300, view.Remaining)
	assert.False(t, view.ResendAllowed)

	session, err := enterCode(t, f, "123456")
	require.NoError(t, err)
	assert.True(t, session.Authenticated)
}

func TestController_BackKeepsPendingSignup(t *testing.T) {
	f := createControllerForTest(t)
	toOTP(t, f)

	require.NoError(t, f.controller.Back())
	assert.Equal(t, StepSignup, f.controller.Step())
	assert.False(t, f.controller.Timer().Running())
	assert.NotNil(t, f.manager.PendingSignup())
	assert.False(t, f.manager.IsAuthenticated())

	require.NoError(t, f.controller.Back())
	assert.Equal(t, StepWelcome, f.controller.Step())
	assert.Nil(t, f.manager.PendingSignup(), "leaving the signup path drops the pending signup")
	assert.Nil(t, f.manager.Challenge())
}

func TestController_LoginAfterAbandonedSignup(t *testing.T) {
	f := createControllerForTest(t)
	toOTP(t, f)

	require.NoError(t, f.controller.Back())
	require.NoError(t, f.controller.GoToLogin())
	assert.Nil(t, f.manager.PendingSignup(), "switching to login drops the pending signup")

	_, err := f.controller.SubmitLogin(context.Background(), validLogin)
	require.NoError(t, err)
	assert.Equal(t, StepApp, f.controller.Step())
	assert.Nil(t, f.manager.PendingSignup())
	assert.Nil(t, f.manager.Challenge())
}

func TestController_ConcurrentResendIssuesOneCode(t *testing.T) {
	f := createControllerForTest(t)
	toOTP(t, f)
	timer := f.controller.Timer()
	for i := 0; i < 300; i++ {
		timer.Tick()
	}
	require.True(t, timer.IsResendAllowed())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		refused   int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.controller.Resend(context.Background())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, domain.ErrResendNotAllowed) {
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 7, refused)
	assert.Equal(t, 1, f.credentials.ResendCalls)
	assert.True(t, timer.Running())

	require.NoError(t, f.controller.Cancel())
	assert.False(t, timer.Running())
}

func TestController_CancelDiscardsChallenge(t *testing.T) {
	f := createControllerForTest(t)
	toOTP(t, f)

	require.NoError(t, f.controller.Cancel())
	assert.Equal(t, StepWelcome, f.controller.Step())
	assert.Nil(t, f.manager.PendingSignup())
	assert.Nil(t, f.manager.Challenge())
	assert.False(t, f.controller.Timer().Running())
	assert.ErrorIs(t, f.controller.Back(), domain.ErrInvalidTransition)
}

func TestController_Logout(t *testing.T) {
	f := createControllerForTest(t)
	require.NoError(t, f.controller.Boot())
	require.NoError(t, f.controller.GoToLogin())
	_, err := f.controller.SubmitLogin(context.Background(), validLogin)
	require.NoError(t, err)

	require.NoError(t, f.controller.Logout())
	assert.Equal(t, StepWelcome, f.controller.Step())
	assert.False(t, f.manager.IsAuthenticated())

	assert.ErrorIs(t, f.controller.Logout(), domain.ErrInvalidTransition)
}

func TestController_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Controller) error
	}{
		{"login before boot", func(c *Controller) error { return c.GoToLogin() }},
		{"digit outside verification", func(c *Controller) error {
			_, err := c.EnterDigit(context.Background(), 0, "1")
			return err
		}},
		{"submit otp outside verification", func(c *Controller) error {
			_, err := c.SubmitOTP(context.Background())
			return err
		}},
		{"signup form outside signup", func(c *Controller) error {
			_, err := c.SubmitSignup(context.Background(), validSignup)
			return err
		}},
		{"cancel from loading", func(c *Controller) error { return c.Cancel() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createControllerForTest(t)
			assert.ErrorIs(t, tt.call(f.controller), domain.ErrInvalidTransition)
		})
	}
}
