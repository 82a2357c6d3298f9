package flow

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/you/chainguard/domain"
	"github.com/you/chainguard/internal/otp"
	"github.com/you/chainguard/internal/validation"
)

// Step names one screen of the auth flow
type Step string

const (
	StepLoading         Step = "Loading"
	StepWelcome         Step = "Welcome"
	StepLogin           Step = "Login"
	StepSignup          Step = "Signup"
	StepOTPVerification Step = "OTPVerification"
	StepApp             Step = "App"
)

// signupSteps is the length of the signup progress indicator
const signupSteps = 3

// Navigator receives every step change
type Navigator interface {
	Navigate(step Step, params map[string]string)
}

// Config tunes the controller
type Config struct {
	Countdown    int
	TickInterval time.Duration
	Logger       *log.Logger
}

// View is a snapshot of what the current screen shows
type View struct {
	Step          Step              `json:"step"`
	Email         string            `json:"email,omitempty"`
	Slots         []string          `json:"slots,omitempty"`
	Focus         int               `json:"focus"`
	Remaining     int               `json:"remaining"`
	Countdown     string            `json:"countdown,omitempty"`
	ResendAllowed bool              `json:"resend_allowed"`
	CanVerify     bool              `json:"can_verify"`
	Loading       bool              `json:"loading"`
	FieldErrors   map[string]string `json:"field_errors,omitempty"`
	ProgressStep  int               `json:"progress_step,omitempty"`
	ProgressTotal int               `json:"progress_total,omitempty"`
}

// Controller sequences the auth screens and owns the OTP input and
// countdown while the verification step is active.
type Controller struct {
	auth      domain.AuthService
	nav       Navigator
	timer     *otp.Timer
	assembler *otp.Assembler
	logger    *log.Logger

	// opMu serializes operations so a check and the transition it guards
	// cannot interleave with another request.
	opMu sync.Mutex

	mu          sync.Mutex
	step        Step
	history     []Step
	params      map[string]string
	fieldErrors domain.FieldErrors
	completed   string
}

// NewController creates a controller parked on the Loading step
func NewController(auth domain.AuthService, nav Navigator, cfg Config) *Controller {
	if nav == nil {
		nav = NopNavigator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	c := &Controller{
		auth:        auth,
		nav:         nav,
		timer:       otp.NewTimer(cfg.Countdown, cfg.TickInterval),
		assembler:   otp.NewAssembler(),
		logger:      cfg.Logger,
		step:        StepLoading,
		fieldErrors: domain.FieldErrors{},
	}
	c.assembler.OnComplete(func(code string) {
		c.mu.Lock()
		c.completed = code
		c.mu.Unlock()
	})
	c.timer.OnExpire(auth.ExpireChallenge)
	return c
}

// Boot leaves Loading for App when a session exists, Welcome otherwise
func (c *Controller) Boot() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.step != StepLoading {
		c.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	c.mu.Unlock()

	if c.auth.IsAuthenticated() {
		c.reset(StepApp, nil)
	} else {
		c.reset(StepWelcome, nil)
	}
	return nil
}

// GoToLogin opens the login screen from Welcome or Signup
func (c *Controller) GoToLogin() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	return c.push(StepLogin, nil, StepWelcome, StepSignup)
}

// GoToSignup opens the signup screen from Welcome or Login
func (c *Controller) GoToSignup() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	return c.push(StepSignup, nil, StepWelcome, StepLogin)
}

// SubmitLogin validates form and signs in. Success lands on App.
func (c *Controller) SubmitLogin(ctx context.Context, form validation.LoginForm) (*domain.Session, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.expect(StepLogin); err != nil {
		return nil, err
	}
	if err := c.validate(form.Validate()); err != nil {
		return nil, err
	}

	session, err := c.auth.Login(ctx, form.Email, form.Password)
	if err != nil {
		return nil, err
	}
	c.reset(StepApp, map[string]string{"email": session.User.Email})
	return session, nil
}

// SubmitSignup validates form, starts the signup and opens verification
func (c *Controller) SubmitSignup(ctx context.Context, form validation.SignupForm) (*domain.PendingSignup, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.expect(StepSignup); err != nil {
		return nil, err
	}
	if err := c.validate(form.Validate()); err != nil {
		return nil, err
	}

	pending, err := c.auth.Signup(ctx, form.FullName, form.Email, form.Phone, form.Password)
	if err != nil {
		return nil, err
	}

	if err := c.push(StepOTPVerification, map[string]string{"email": pending.Email}, StepSignup); err != nil {
		return nil, err
	}
	return pending, nil
}

// EditField clears the error shown for field
func (c *Controller) EditField(field string) {
	c.mu.Lock()
	c.fieldErrors.Clear(field)
	c.mu.Unlock()
}

// EnterDigit forwards typed or pasted text to the code input. When that
// completes a new code it is submitted at once and the verification
// result is returned; otherwise both results are nil.
func (c *Controller) EnterDigit(ctx context.Context, index int, raw string) (*domain.Session, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.expect(StepOTPVerification); err != nil {
		return nil, err
	}

	c.assembler.SetDigit(index, raw)

	c.mu.Lock()
	code := c.completed
	c.completed = ""
	c.mu.Unlock()

	if code == "" {
		return nil, nil
	}
	return c.verify(ctx, code)
}

// Backspace handles the delete key on an already empty slot
func (c *Controller) Backspace(index int) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.expect(StepOTPVerification); err != nil {
		return err
	}
	c.assembler.Backspace(index)
	return nil
}

// SubmitOTP verifies the entered code. A partial code is refused.
func (c *Controller) SubmitOTP(ctx context.Context) (*domain.Session, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.expect(StepOTPVerification); err != nil {
		return nil, err
	}
	if !c.assembler.Complete() {
		return nil, domain.ErrIncompleteCode
	}
	return c.verify(ctx, c.assembler.Code())
}

// Resend asks for a new code once the countdown has run out. The entered
// digits are cleared and the countdown restarts.
func (c *Controller) Resend(ctx context.Context) (*domain.OTPChallenge, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.expect(StepOTPVerification); err != nil {
		return nil, err
	}
	if !c.timer.IsResendAllowed() {
		return nil, domain.ErrResendNotAllowed
	}

	challenge, err := c.auth.ResendOTP(ctx)
	if err != nil {
		return nil, err
	}

	c.assembler.Reset()
	c.timer.Reset()
	c.timer.Start(context.Background())
	c.logger.Printf("OTP_RESENT: email=%s", challenge.TargetEmail)
	return challenge, nil
}

// Back returns to the previous step. A pending signup survives the step
// back from verification to the form and is dropped once the flow leaves
// the signup path.
func (c *Controller) Back() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if len(c.history) == 0 {
		c.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	from := c.step
	to := c.history[len(c.history)-1]
	c.history = c.history[:len(c.history)-1]
	c.step = to
	c.params = nil
	c.fieldErrors = domain.FieldErrors{}
	c.mu.Unlock()

	c.transitioned(from, to, nil)
	return nil
}

// Cancel abandons login or signup and returns to Welcome, discarding any
// pending verification.
func (c *Controller) Cancel() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.expect(StepLogin, StepSignup, StepOTPVerification); err != nil {
		return err
	}
	c.reset(StepWelcome, nil)
	return nil
}

// Logout ends the session and returns to Welcome
func (c *Controller) Logout() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.expect(StepApp); err != nil {
		return err
	}
	c.auth.Logout()
	c.reset(StepWelcome, nil)
	return nil
}

// Close stops the countdown. The controller is unusable afterwards.
func (c *Controller) Close() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.timer.Stop()
}

// Step returns the active step
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Progress returns the signup indicator position, or zero off the signup path
func (c *Controller) Progress() (step, total int) {
	switch c.Step() {
	case StepSignup:
		return 1, signupSteps
	case StepOTPVerification:
		return 2, signupSteps
	case StepApp:
		return 3, signupSteps
	}
	return 0, 0
}

// FieldErrors returns a copy of the current validation messages
func (c *Controller) FieldErrors() domain.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(domain.FieldErrors, len(c.fieldErrors))
	for k, v := range c.fieldErrors {
		out[k] = v
	}
	return out
}

// Timer exposes the verification countdown
func (c *Controller) Timer() *otp.Timer {
	return c.timer
}

// View snapshots the active screen
func (c *Controller) View() View {
	c.mu.Lock()
	v := View{
		Step:  c.step,
		Email: c.params["email"],
	}
	if len(c.fieldErrors) > 0 {
		v.FieldErrors = make(map[string]string, len(c.fieldErrors))
		for k, msg := range c.fieldErrors {
			v.FieldErrors[k] = msg
		}
	}
	c.mu.Unlock()

	v.Loading = c.auth.IsLoading()
	v.ProgressStep, v.ProgressTotal = c.Progress()
	if v.Step == StepOTPVerification {
		v.Slots = c.assembler.Slots()
		v.Focus = c.assembler.Focus()
		v.Remaining = c.timer.Remaining()
		v.Countdown = c.timer.FormattedRemaining()
		v.ResendAllowed = c.timer.IsResendAllowed()
		v.CanVerify = c.assembler.Complete() && !v.Loading
	}
	return v
}

func (c *Controller) verify(ctx context.Context, code string) (*domain.Session, error) {
	session, err := c.auth.VerifyOTP(ctx, code)
	if err != nil {
		return nil, err
	}
	c.reset(StepApp, map[string]string{"email": session.User.Email})
	return session, nil
}

func (c *Controller) validate(errs domain.FieldErrors) error {
	shown := make(domain.FieldErrors, len(errs))
	for k, v := range errs {
		shown[k] = v
	}
	c.mu.Lock()
	c.fieldErrors = shown
	c.mu.Unlock()
	return domain.NewValidationError(errs)
}

func (c *Controller) expect(allowed ...Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range allowed {
		if c.step == s {
			return nil
		}
	}
	return domain.ErrInvalidTransition
}

// push moves to step, remembering the current one for Back
func (c *Controller) push(to Step, params map[string]string, from ...Step) error {
	c.mu.Lock()
	if !contains(from, c.step) {
		c.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	prev := c.step
	c.history = append(c.history, prev)
	c.step = to
	c.params = params
	c.fieldErrors = domain.FieldErrors{}
	c.mu.Unlock()

	c.transitioned(prev, to, params)
	return nil
}

// reset moves to step and forgets the history
func (c *Controller) reset(to Step, params map[string]string) {
	c.mu.Lock()
	prev := c.step
	c.history = nil
	c.step = to
	c.params = params
	c.fieldErrors = domain.FieldErrors{}
	c.mu.Unlock()

	c.transitioned(prev, to, params)
}

// transitioned runs the step exit and entry hooks and informs the navigator
func (c *Controller) transitioned(from, to Step, params map[string]string) {
	if from == StepOTPVerification && to != StepOTPVerification {
		c.timer.Stop()
	}
	if to != StepSignup && to != StepOTPVerification {
		c.auth.CancelSignup()
	}
	if to == StepOTPVerification {
		c.assembler.Reset()
		c.timer.Reset()
		c.timer.Start(context.Background())
	}

	c.logger.Printf("FLOW_TRANSITION: from=%s to=%s", from, to)
	c.nav.Navigate(to, params)
}

func contains(steps []Step, s Step) bool {
	for _, x := range steps {
		if x == s {
			return true
		}
	}
	return false
}

// NopNavigator discards step changes
type NopNavigator struct{}

// Navigate implements Navigator
func (NopNavigator) Navigate(Step, map[string]string) {}

// LogNavigator writes each step change to a logger
type LogNavigator struct {
	Logger *log.Logger
}

// Navigate implements Navigator
func (n LogNavigator) Navigate(step Step, params map[string]string) {
	if n.Logger == nil {
		return
	}
	n.Logger.Printf("NAVIGATE: step=%s params=%v", step, params)
}
