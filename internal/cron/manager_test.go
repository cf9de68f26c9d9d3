package cron

import (
	"sync"
	"testing"
	"time"

	"github.com/palaver-ai/pa/internal/bus"
)

func TestManagerFiresOneshotAndRearms(t *testing.T) {
	events := bus.NewQueue()
	m := NewManager(t.TempDir(), events)

	// Job X is a far-off cron; job Y a oneshot due in 50 ms.
	if out := m.Handle("add", map[string]any{
		"label":    "X",
		"schedule": map[string]any{"type": "cron", "expression": "0 9 * * *"},
		"payload":  "morning briefing",
	}); !out.Success {
		t.Fatalf("add X: %s", out.Message)
	}
	addY := m.Handle("add", map[string]any{
		"label":          "Y",
		"schedule":       map[string]any{"type": "oneshot", "iso": time.Now().Add(50 * time.Millisecond).Format(time.RFC3339)},
		"payload":        "fire once",
		"deleteAfterRun": true,
	})
	if !addY.Success {
		t.Fatalf("add Y: %s", addY.Message)
	}
	jobY := addY.Data.(Job)

	var mu sync.Mutex
	var fired []string
	m.OnJobFired = func(j Job) {
		mu.Lock()
		fired = append(fired, j.Label)
		mu.Unlock()
	}
	m.RearmTimer()
	defer m.Stop()

	// RFC 3339 truncates to seconds, so the oneshot may land up to a
	// second out; wait generously.
	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		n := len(fired)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("oneshot never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	if len(fired) != 1 || fired[0] != "Y" {
		t.Errorf("fired = %v, want [Y]", fired)
	}
	mu.Unlock()

	pending := events.Peek()
	if len(pending) != 1 || pending[0].Type != bus.EventCron || pending[0].Text != "fire once" {
		t.Errorf("events = %+v", pending)
	}

	// Delete-after-run removed Y; only X remains and is armed.
	if _, found := m.store.Get(jobY.ID); found {
		t.Errorf("delete-after-run oneshot survived")
	}
	if !m.timer.Armed() {
		t.Errorf("timer not re-armed for X")
	}
}

func TestManagerFireRecordsLastFiredAt(t *testing.T) {
	dir := t.TempDir()
	events := bus.NewQueue()
	m := NewManager(dir, events)

	out := m.Handle("add", map[string]any{
		"label":    "interval",
		"schedule": map[string]any{"type": "interval", "everyMs": 60_000},
		"payload":  "tick",
	})
	job := out.Data.(Job)
	m.Stop() // Handle armed the timer; drive the fire by hand.

	m.fire(job.ID)
	m.Stop()

	got, _ := m.store.Get(job.ID)
	if got.LastFiredAt == nil {
		t.Fatalf("LastFiredAt not stamped")
	}

	// The fire persisted; a fresh store sees the stamp.
	reloaded := NewStore(dir)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	persisted, ok := reloaded.Get(job.ID)
	if !ok || persisted.LastFiredAt == nil {
		t.Errorf("fire not persisted: %+v", persisted)
	}
}

func TestManagerRearmWithNoJobsDisarms(t *testing.T) {
	m := NewManager(t.TempDir(), bus.NewQueue())
	m.RearmTimer()
	if m.timer.Armed() {
		t.Errorf("timer armed with no jobs")
	}
	m.Stop() // disarm with nothing armed is safe
}

func TestManagerDisabledJobNeverFires(t *testing.T) {
	events := bus.NewQueue()
	m := NewManager(t.TempDir(), events)

	out := m.Handle("add", map[string]any{
		"label":    "paused",
		"schedule": map[string]any{"type": "interval", "everyMs": 1},
		"payload":  "no",
	})
	job := out.Data.(Job)
	if upd := m.Handle("update", map[string]any{"id": job.ID, "enabled": false}); !upd.Success {
		t.Fatalf("disable: %s", upd.Message)
	}

	m.RearmTimer()
	defer m.Stop()
	if m.timer.Armed() {
		t.Errorf("timer armed for a disabled job")
	}

	time.Sleep(50 * time.Millisecond)
	if events.Len() != 0 {
		t.Errorf("disabled job fired: %+v", events.Peek())
	}
}
