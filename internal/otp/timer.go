package otp

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultCountdown is the verification window in seconds
const DefaultCountdown = 300

// Timer counts a verification window down one tick at a time. Ticks come
// from a ticker goroutine started by Start, or from direct Tick calls.
type Timer struct {
	runMu     sync.Mutex
	mu        sync.Mutex
	total     int
	remaining int
	interval  time.Duration
	onTick    func(remaining int)
	onExpire  func()

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTimer creates a stopped timer of seconds ticks, one every interval
func NewTimer(seconds int, interval time.Duration) *Timer {
	if seconds <= 0 {
		seconds = DefaultCountdown
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Timer{
		total:     seconds,
		remaining: seconds,
		interval:  interval,
	}
}

// OnTick registers fn to run after every decrement
func (t *Timer) OnTick(fn func(remaining int)) {
	t.mu.Lock()
	t.onTick = fn
	t.mu.Unlock()
}

// OnExpire registers fn to run once when the countdown reaches zero
func (t *Timer) OnExpire(fn func()) {
	t.mu.Lock()
	t.onExpire = fn
	t.mu.Unlock()
}

// Start begins ticking in the background. A running timer is stopped first.
// Cancelling ctx has the same effect as Stop, minus the wait.
func (t *Timer) Start(ctx context.Context) {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	t.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	t.mu.Lock()
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	go t.run(ctx, done)
}

func (t *Timer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			t.Tick()
		}
	}
}

// Stop cancels the ticker goroutine and waits for it to exit. No tick or
// callback runs after Stop returns. Must not be called from a callback.
func (t *Timer) Stop() {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	t.stopLocked()
}

// stopLocked tears down the ticker goroutine; runMu must be held
func (t *Timer) stopLocked() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the ticker goroutine is active
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Tick decrements the countdown by one while it is above zero
func (t *Timer) Tick() {
	t.mu.Lock()
	if t.remaining == 0 {
		t.mu.Unlock()
		return
	}
	t.remaining--
	remaining := t.remaining
	onTick, onExpire := t.onTick, t.onExpire
	t.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if remaining == 0 && onExpire != nil {
		onExpire()
	}
}

// Reset restores the full countdown and clears expiry
func (t *Timer) Reset() {
	t.mu.Lock()
	t.remaining = t.total
	t.mu.Unlock()
}

// Remaining returns the seconds left
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Expired reports whether the countdown has reached zero
func (t *Timer) Expired() bool {
	return t.Remaining() == 0
}

// IsResendAllowed is true once the countdown has run out
func (t *Timer) IsResendAllowed() bool {
	return t.Expired()
}

// FormattedRemaining renders the remaining time as M:SS
func (t *Timer) FormattedRemaining() string {
	return FormatSeconds(t.Remaining())
}

// FormatSeconds renders seconds as M:SS
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
