package cron

import (
	"testing"
	"time"
)

func TestNextRunAtDisabledJob(t *testing.T) {
	job := Job{
		Enabled:   false,
		Schedule:  Schedule{Type: ScheduleInterval, EveryMs: 1000},
		CreatedAt: time.Now(),
	}
	if got := NextRunAt(job, time.Now()); got != nil {
		t.Errorf("disabled job has a next run: %v", got)
	}
}

func TestNextRunAtOneshot(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	future := now.Add(time.Hour)
	job := Job{
		Enabled:  true,
		Schedule: Schedule{Type: ScheduleOneshot, ISO: future.Format(time.RFC3339)},
	}
	got := NextRunAt(job, now)
	if got == nil || !got.Equal(future) {
		t.Errorf("future oneshot = %v, want %v", got, future)
	}

	job.Schedule.ISO = now.Add(-time.Hour).Format(time.RFC3339)
	if got := NextRunAt(job, now); got != nil {
		t.Errorf("past oneshot = %v, want nil", got)
	}

	job.Schedule.ISO = "not-a-time"
	if got := NextRunAt(job, now); got != nil {
		t.Errorf("malformed oneshot = %v, want nil", got)
	}
}

func TestNextRunAtInterval(t *testing.T) {
	created := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	now := created.Add(10 * time.Minute)

	job := Job{
		Enabled:   true,
		Schedule:  Schedule{Type: ScheduleInterval, EveryMs: 60_000},
		CreatedAt: created,
	}

	// Before the first fire the base is CreatedAt, even if that deadline
	// is already past.
	got := NextRunAt(job, now)
	if want := created.Add(time.Minute); got == nil || !got.Equal(want) {
		t.Errorf("interval before first fire = %v, want %v", got, want)
	}

	fired := now.Add(-30 * time.Second)
	job.LastFiredAt = &fired
	got = NextRunAt(job, now)
	if want := fired.Add(time.Minute); got == nil || !got.Equal(want) {
		t.Errorf("interval after fire = %v, want %v", got, want)
	}
}

func TestNextRunAtCronExpression(t *testing.T) {
	now := time.Date(2026, 8, 25, 8, 30, 0, 0, time.UTC)

	job := Job{
		Enabled:  true,
		Schedule: Schedule{Type: ScheduleCron, Expression: "0 9 * * *"},
	}
	got := NextRunAt(job, now)
	if got == nil {
		t.Fatalf("cron job has no next run")
	}
	if want := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("cron next = %v, want %v", got, want)
	}
	if !got.After(now) {
		t.Errorf("cron next %v is not strictly after now %v", got, now)
	}

	job.Schedule.Expression = "this is not cron"
	if got := NextRunAt(job, now); got != nil {
		t.Errorf("invalid expression = %v, want nil", got)
	}
}
