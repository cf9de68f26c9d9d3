package heartbeat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/palaver-ai/pa/internal/bus"
	"github.com/palaver-ai/pa/internal/config"
)

func TestIsOK(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"HEARTBEAT_OK", true},
		{"heartbeat_ok", true},
		{"  HEARTBEAT_OK  ", true},
		{"\nHeartbeat_Ok\t", true},
		{"HEARTBEAT_OK and more", false},
		{"all good", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsOK(tt.in); got != tt.want {
			t.Errorf("IsOK(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

type tickRecorder struct {
	mu        sync.Mutex
	prompts   []string
	deliverTo []string
}

func (r *tickRecorder) callback(_ context.Context, prompt, deliverTo string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	r.deliverTo = append(r.deliverTo, deliverTo)
}

func newTickScheduler(t *testing.T, events *bus.Queue, rec *tickRecorder) *Scheduler {
	t.Helper()
	s := NewScheduler(config.HeartbeatConfig{
		Enabled:         true,
		IntervalMinutes: 30,
		ActiveHours:     "0-24",
		DeliverTo:       "telegram--99",
	}, events, "", rec.callback)
	return s
}

func TestTickPrefersExecEvents(t *testing.T) {
	events := bus.NewQueue()
	events.Enqueue("c1", bus.EventCron)
	events.Enqueue("e1", bus.EventExec)
	events.Enqueue("c2", bus.EventCron)

	rec := &tickRecorder{}
	s := newTickScheduler(t, events, rec)
	s.Tick(context.Background())

	if len(rec.prompts) != 1 {
		t.Fatalf("callback invoked %d times", len(rec.prompts))
	}
	prompt := rec.prompts[0]
	if !strings.Contains(prompt, "e1") {
		t.Errorf("prompt does not cite exec event: %q", prompt)
	}
	if strings.Contains(prompt, "c1") || strings.Contains(prompt, "c2") {
		t.Errorf("prompt cites cron events despite pending exec: %q", prompt)
	}
	if rec.deliverTo[0] != "telegram--99" {
		t.Errorf("deliverTo = %q", rec.deliverTo[0])
	}
	if events.Len() != 0 {
		t.Errorf("tick did not drain the event queue")
	}
}

func TestTickFallsBackToCronThenStandard(t *testing.T) {
	events := bus.NewQueue()
	events.Enqueue("water the plants", bus.EventCron)

	rec := &tickRecorder{}
	s := newTickScheduler(t, events, rec)
	s.Tick(context.Background())

	if !strings.Contains(rec.prompts[0], "water the plants") {
		t.Errorf("cron prompt = %q", rec.prompts[0])
	}

	// Queue now empty: the standard prompt carries a current timestamp.
	s.now = func() time.Time { return time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC) }
	s.Tick(context.Background())
	if !strings.Contains(rec.prompts[1], "2026-08-25T10:00:00Z") {
		t.Errorf("standard prompt lacks timestamp: %q", rec.prompts[1])
	}
	for _, p := range rec.prompts {
		if !strings.Contains(p, OK) {
			t.Errorf("prompt does not mention the sentinel: %q", p)
		}
	}
}

func TestTickSkipsOutsideActiveHours(t *testing.T) {
	rec := &tickRecorder{}
	s := NewScheduler(config.HeartbeatConfig{
		Enabled:         true,
		IntervalMinutes: 30,
		ActiveHours:     "8-22",
		DeliverTo:       "telegram--99",
	}, bus.NewQueue(), "", rec.callback)

	s.now = func() time.Time { return time.Date(2026, 8, 25, 3, 0, 0, 0, time.Local) }
	s.Tick(context.Background())
	if len(rec.prompts) != 0 {
		t.Errorf("tick fired at 03:00 with active hours 8-22")
	}

	s.now = func() time.Time { return time.Date(2026, 8, 25, 8, 0, 0, 0, time.Local) }
	s.Tick(context.Background())
	if len(rec.prompts) != 1 {
		t.Errorf("tick did not fire at the inclusive start hour")
	}

	// End hour is exclusive.
	s.now = func() time.Time { return time.Date(2026, 8, 25, 22, 0, 0, 0, time.Local) }
	s.Tick(context.Background())
	if len(rec.prompts) != 1 {
		t.Errorf("tick fired at the exclusive end hour")
	}
}

func TestActiveHoursWrapPastMidnight(t *testing.T) {
	rec := &tickRecorder{}
	s := NewScheduler(config.HeartbeatConfig{
		Enabled:         true,
		IntervalMinutes: 30,
		ActiveHours:     "22-6",
		DeliverTo:       "x",
	}, bus.NewQueue(), "", rec.callback)

	if !s.withinActiveHours(23) || !s.withinActiveHours(2) {
		t.Errorf("night hours rejected by 22-6 window")
	}
	if s.withinActiveHours(12) {
		t.Errorf("noon accepted by 22-6 window")
	}
}

func TestTickSurvivesCallbackPanic(t *testing.T) {
	s := NewScheduler(config.HeartbeatConfig{
		Enabled:         true,
		IntervalMinutes: 30,
		ActiveHours:     "0-24",
		DeliverTo:       "x",
	}, bus.NewQueue(), "", func(context.Context, string, string) {
		panic("callback exploded")
	})

	// Must not propagate.
	s.Tick(context.Background())
}

func TestStandardPromptIncludesChecklist(t *testing.T) {
	workspace := t.TempDir()
	checklist := "# Heartbeat\n\n- check the mail queue\n"
	if err := os.WriteFile(filepath.Join(workspace, "HEARTBEAT.md"), []byte(checklist), 0o600); err != nil {
		t.Fatalf("write checklist: %v", err)
	}

	rec := &tickRecorder{}
	s := NewScheduler(config.HeartbeatConfig{
		Enabled:         true,
		IntervalMinutes: 30,
		ActiveHours:     "0-24",
		DeliverTo:       "x",
	}, bus.NewQueue(), workspace, rec.callback)
	s.Tick(context.Background())

	if !strings.Contains(rec.prompts[0], "check the mail queue") {
		t.Errorf("prompt lacks checklist: %q", rec.prompts[0])
	}
}

func TestChecklistWithOnlyHeadingsIsIgnored(t *testing.T) {
	workspace := t.TempDir()
	content := "# Heartbeat\n\n<!-- fill me in -->\n## Section\n"
	if err := os.WriteFile(filepath.Join(workspace, "HEARTBEAT.md"), []byte(content), 0o600); err != nil {
		t.Fatalf("write checklist: %v", err)
	}

	rec := &tickRecorder{}
	s := newTickScheduler(t, bus.NewQueue(), rec)
	s.workspace = workspace
	s.Tick(context.Background())

	if strings.Contains(rec.prompts[0], "fill me in") {
		t.Errorf("structural-only checklist leaked into prompt: %q", rec.prompts[0])
	}
}

func TestDisabledSchedulerIsStoppableNoop(t *testing.T) {
	s := NewScheduler(config.HeartbeatConfig{Enabled: false}, bus.NewQueue(), "", func(context.Context, string, string) {
		t.Errorf("disabled heartbeat ticked")
	})
	s.Start(context.Background())
	s.Stop()
	s.Stop()
}
