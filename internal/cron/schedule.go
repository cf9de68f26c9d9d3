package cron

import (
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field expressions (minute hour dom month dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRunAt computes when a job should next fire, relative to now.
// Disabled jobs, spent one-shots and unparseable schedules yield nil.
// Interval deadlines may lie in the past; callers treat those as "fire
// immediately".
func NextRunAt(job Job, now time.Time) *time.Time {
	if !job.Enabled {
		return nil
	}

	switch job.Schedule.Type {
	case ScheduleCron:
		sched, err := cronParser.Parse(job.Schedule.Expression)
		if err != nil {
			return nil
		}
		next := sched.Next(now.UTC())
		if next.IsZero() {
			return nil
		}
		return &next

	case ScheduleOneshot:
		at, err := time.Parse(time.RFC3339, job.Schedule.ISO)
		if err != nil {
			return nil
		}
		if !at.After(now) {
			// Already past; the one-shot is inert.
			return nil
		}
		return &at

	case ScheduleInterval:
		if job.Schedule.EveryMs <= 0 {
			return nil
		}
		base := job.CreatedAt
		if job.LastFiredAt != nil {
			base = *job.LastFiredAt
		}
		next := base.Add(time.Duration(job.Schedule.EveryMs) * time.Millisecond)
		return &next

	default:
		return nil
	}
}
