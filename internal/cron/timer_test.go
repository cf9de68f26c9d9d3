package cron

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerFiresAtDeadline(t *testing.T) {
	timer := NewTimer()
	defer timer.Disarm()

	fired := make(chan struct{})
	timer.Arm(time.Now().Add(20*time.Millisecond), func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never fired")
	}
	if timer.Armed() {
		t.Errorf("timer still armed after firing")
	}
}

func TestTimerPastDeadlineFiresImmediately(t *testing.T) {
	timer := NewTimer()
	defer timer.Disarm()

	fired := make(chan struct{})
	timer.Arm(time.Now().Add(-time.Minute), func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("past deadline did not fire immediately")
	}
}

func TestTimerRearmReplacesDeadline(t *testing.T) {
	timer := NewTimer()
	defer timer.Disarm()

	var first, second atomic.Int32
	timer.Arm(time.Now().Add(30*time.Millisecond), func() { first.Add(1) })
	timer.Arm(time.Now().Add(60*time.Millisecond), func() { second.Add(1) })

	time.Sleep(200 * time.Millisecond)
	if first.Load() != 0 {
		t.Errorf("replaced deadline still fired")
	}
	if second.Load() != 1 {
		t.Errorf("second deadline fired %d times", second.Load())
	}
}

func TestTimerDisarm(t *testing.T) {
	timer := NewTimer()

	var count atomic.Int32
	timer.Arm(time.Now().Add(30*time.Millisecond), func() { count.Add(1) })
	timer.Disarm()

	time.Sleep(100 * time.Millisecond)
	if count.Load() != 0 {
		t.Errorf("disarmed timer fired")
	}

	// Disarm with nothing armed is a no-op.
	timer.Disarm()
}
