package otp

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_ResendGate(t *testing.T) {
	timer := NewTimer(DefaultCountdown, time.Second)
	var expiries int32
	timer.OnExpire(func() { atomic.AddInt32(&expiries, 1) })

	for i := 1; i < DefaultCountdown; i++ {
		timer.Tick()
		require.False(t, timer.IsResendAllowed(), "tick %d", i)
	}

	timer.Tick()
	assert.True(t, timer.IsResendAllowed())
	assert.True(t, timer.Expired())
	assert.Equal(t, int32(1), atomic.LoadInt32(&expiries))

	// further ticks stay at zero and do not re-fire
	timer.Tick()
	assert.Equal(t, 0, timer.Remaining())
	assert.Equal(t, int32(1), atomic.LoadInt32(&expiries))
}

func TestTimer_Reset(t *testing.T) {
	timer := NewTimer(3, time.Second)
	timer.Tick()
	timer.Tick()
	timer.Tick()
	require.True(t, timer.Expired())

	timer.Reset()
	assert.False(t, timer.Expired())
	assert.Equal(t, 3, timer.Remaining())
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{300, "5:00"},
		{299, "4:59"},
		{65, "1:05"},
		{9, "0:09"},
		{0, "0:00"},
		{-4, "0:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatSeconds(tt.seconds))
	}

	timer := NewTimer(0, 0)
	assert.Equal(t, "5:00", timer.FormattedRemaining())
}

func TestTimer_BackgroundTicks(t *testing.T) {
	timer := NewTimer(3, 5*time.Millisecond)
	expired := make(chan struct{})
	timer.OnExpire(func() { close(expired) })

	timer.Start(context.Background())
	defer timer.Stop()

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not expire")
	}
	assert.True(t, timer.IsResendAllowed())
}

func TestTimer_StopHaltsTicks(t *testing.T) {
	timer := NewTimer(1000, time.Millisecond)
	var ticks int32
	timer.OnTick(func(int) { atomic.AddInt32(&ticks, 1) })

	timer.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	timer.Stop()
	assert.False(t, timer.Running())

	stopped := atomic.LoadInt32(&ticks)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&ticks), "no ticks after Stop")

	// Stop is idempotent
	timer.Stop()
}

func TestTimer_ContextCancelStopsTicks(t *testing.T) {
	timer := NewTimer(1000, time.Millisecond)
	var ticks int32
	timer.OnTick(func(int) { atomic.AddInt32(&ticks, 1) })

	ctx, cancel := context.WithCancel(context.Background())
	timer.Start(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)

	after := atomic.LoadInt32(&ticks)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&ticks))
	timer.Stop()
}

func TestTimer_ConcurrentStartLeavesOneTicker(t *testing.T) {
	timer := NewTimer(100000, time.Millisecond)
	var ticks int32
	timer.OnTick(func(int) { atomic.AddInt32(&ticks, 1) })

	for trial := 0; trial < 200; trial++ {
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				timer.Start(context.Background())
			}()
		}
		wg.Wait()
		timer.Stop()
		require.False(t, timer.Running(), "trial %d", trial)
	}

	stopped := atomic.LoadInt32(&ticks)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&ticks), "a ticker outlived Stop")
}
