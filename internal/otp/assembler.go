package otp

import (
	"strings"
	"sync"

	"github.com/you/chainguard/domain"
)

const lastSlot = domain.OTPCodeLength - 1

// Assembler collects a verification code one slot at a time
type Assembler struct {
	mu            sync.Mutex
	slots         [domain.OTPCodeLength]string
	focus         int
	onComplete    func(code string)
	lastCompleted string
}

// NewAssembler returns an empty assembler focused on the first slot
func NewAssembler() *Assembler {
	return &Assembler{}
}

// OnComplete registers fn to receive each distinct fully entered code
func (a *Assembler) OnComplete(fn func(code string)) {
	a.mu.Lock()
	a.onComplete = fn
	a.mu.Unlock()
}

// SetDigit applies raw text typed or pasted into slot index.
// An empty string clears the slot. Text with any non-digit is ignored in
// full. Multi-character text fills consecutive slots from index and drops
// whatever does not fit. Returns false when nothing changed.
func (a *Assembler) SetDigit(index int, raw string) bool {
	if index < 0 || index > lastSlot {
		return false
	}
	if raw != "" && !isDigits(raw) {
		return false
	}

	a.mu.Lock()
	switch {
	case raw == "":
		a.slots[index] = ""
	case len(raw) > 1:
		for i := 0; i < len(raw) && index+i <= lastSlot; i++ {
			a.slots[index+i] = raw[i : i+1]
		}
		a.focus = min(index+len(raw), lastSlot)
	default:
		a.slots[index] = raw
		if index < lastSlot {
			a.focus = index + 1
		}
	}
	code, fire := a.completionLocked()
	onComplete := a.onComplete
	a.mu.Unlock()

	if fire && onComplete != nil {
		onComplete(code)
	}
	return true
}

// Backspace moves focus back one slot when the slot at index is already
// empty. Clearing a filled slot goes through SetDigit(index, "").
func (a *Assembler) Backspace(index int) {
	if index <= 0 || index > lastSlot {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.slots[index] == "" {
		a.focus = index - 1
	}
}

// SetFocus moves input focus to index
func (a *Assembler) SetFocus(index int) {
	if index < 0 || index > lastSlot {
		return
	}
	a.mu.Lock()
	a.focus = index
	a.mu.Unlock()
}

// Focus returns the slot that currently has input focus
func (a *Assembler) Focus() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.focus
}

// Code concatenates the filled slots in order
func (a *Assembler) Code() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.codeLocked()
}

// Slots returns a copy of every slot, empty ones included
func (a *Assembler) Slots() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.slots))
	copy(out, a.slots[:])
	return out
}

// Complete reports whether all slots hold a digit
func (a *Assembler) Complete() bool {
	return len(a.Code()) == domain.OTPCodeLength
}

// Reset clears every slot and focuses the first
func (a *Assembler) Reset() {
	a.mu.Lock()
	a.slots = [domain.OTPCodeLength]string{}
	a.focus = 0
	a.lastCompleted = ""
	a.mu.Unlock()
}

func (a *Assembler) codeLocked() string {
	return strings.Join(a.slots[:], "")
}

// completionLocked decides whether the current code should be announced.
// A code is announced once; going incomplete re-arms the signal.
func (a *Assembler) completionLocked() (string, bool) {
	code := a.codeLocked()
	if len(code) != domain.OTPCodeLength {
		a.lastCompleted = ""
		return code, false
	}
	if code == a.lastCompleted {
		return code, false
	}
	a.lastCompleted = code
	return code, true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
