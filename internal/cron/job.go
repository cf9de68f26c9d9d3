// Package cron persists scheduled jobs and arms a single next-deadline
// timer across all of them. Fires surface as cron system-events which
// the next heartbeat folds into its prompt.
package cron

import "time"

type ScheduleType string

const (
	// ScheduleCron is a standard 5-field cron expression, evaluated in UTC.
	ScheduleCron ScheduleType = "cron"
	// ScheduleOneshot fires once at an absolute RFC 3339 instant.
	ScheduleOneshot ScheduleType = "oneshot"
	// ScheduleInterval fires every EveryMs relative to the last fire
	// (or creation, before the first fire).
	ScheduleInterval ScheduleType = "interval"
)

// Schedule is the tagged union selecting how a job's next fire time is
// computed. Exactly one of the value fields is meaningful per type.
type Schedule struct {
	Type       ScheduleType `json:"type"`
	Expression string       `json:"expression,omitempty"`
	ISO        string       `json:"iso,omitempty"`
	EveryMs    int64        `json:"everyMs,omitempty"`
}

// Payload is what a fire delivers into the system-event queue.
type Payload struct {
	Text string `json:"text"`
}

type Job struct {
	ID             string     `json:"id"`
	Label          string     `json:"label"`
	Schedule       Schedule   `json:"schedule"`
	Payload        Payload    `json:"payload"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastFiredAt    *time.Time `json:"lastFiredAt"`
	Enabled        bool       `json:"enabled"`
	DeleteAfterRun bool       `json:"deleteAfterRun,omitempty"`
}

// EventText is the text a fire publishes: the payload when present,
// otherwise the label.
func (j Job) EventText() string {
	if j.Payload.Text != "" {
		return j.Payload.Text
	}
	return j.Label
}
