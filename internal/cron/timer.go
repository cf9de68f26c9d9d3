package cron

import (
	"math"
	"sync"
	"time"
)

// maxArmDelay is the longest delay a single timer is armed for. Deadlines
// further out wake at the clamp, observe that the deadline has not been
// reached, and re-arm; comparing against the absolute wake-up time also
// avoids drift.
const maxArmDelay = time.Duration(math.MaxInt32) * time.Millisecond

// Timer holds at most one armed deadline. Arming replaces the previous
// deadline; Disarm is safe to call at any time, including when nothing
// is armed.
type Timer struct {
	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

func NewTimer() *Timer {
	return &Timer{}
}

// Arm schedules fn to run at deadline, replacing any armed deadline.
func (t *Timer) Arm(deadline time.Time, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.seq++
	t.scheduleLocked(t.seq, deadline, fn)
}

func (t *Timer) scheduleLocked(seq uint64, deadline time.Time, fn func()) {
	delay := time.Until(deadline)
	if delay < 0 {
		delay = 0
	}
	if delay > maxArmDelay {
		delay = maxArmDelay
	}

	t.timer = time.AfterFunc(delay, func() {
		t.mu.Lock()
		if seq != t.seq {
			// Re-armed or disarmed while we were waiting.
			t.mu.Unlock()
			return
		}
		if time.Now().Before(deadline) {
			// Clamp expired before the deadline; arm the remainder.
			t.scheduleLocked(seq, deadline, fn)
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()

		fn()
	})
}

// Disarm cancels the armed deadline, if any.
func (t *Timer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.stopLocked()
}

func (t *Timer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Armed reports whether a deadline is currently pending.
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
