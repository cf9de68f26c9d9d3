package cron

import (
	"time"

	"github.com/palaver-ai/pa/internal/bus"
	"github.com/palaver-ai/pa/internal/pkg/logs"
	"github.com/palaver-ai/pa/internal/pkg/prometheus"
)

// Manager owns the store, the action handler and the single arm-handle.
// It is the only writer of the on-disk job file.
type Manager struct {
	store   *Store
	handler *Handler
	timer   *Timer
	events  *bus.Queue

	// OnJobFired, when set, is invoked after a fire has been recorded
	// and its system-event published. Set before RearmTimer.
	OnJobFired func(Job)
}

func NewManager(dataDir string, events *bus.Queue) *Manager {
	store := NewStore(dataDir)
	return &Manager{
		store:   store,
		handler: NewHandler(store),
		timer:   NewTimer(),
		events:  events,
	}
}

// Load reads the persisted jobs into memory.
func (m *Manager) Load() error {
	return m.store.Load()
}

// Handle applies a management action and re-arms the timer, since any
// mutation may change which job fires next.
func (m *Manager) Handle(action string, args map[string]any) Outcome {
	out := m.handler.Handle(action, args)
	if out.Success {
		m.RearmTimer()
	}
	return out
}

// Jobs returns the current job list.
func (m *Manager) Jobs() []Job {
	return m.store.List()
}

// RearmTimer re-reads the store and arms the job with the earliest
// deadline. With no armable job the handle is disarmed.
func (m *Manager) RearmTimer() {
	now := time.Now()

	var nextJob *Job
	var nextAt time.Time
	for _, job := range m.store.List() {
		at := NextRunAt(job, now)
		if at == nil {
			continue
		}
		if nextJob == nil || at.Before(nextAt) {
			j := job
			nextJob = &j
			nextAt = *at
		}
	}

	if nextJob == nil {
		m.timer.Disarm()
		return
	}

	id := nextJob.ID
	logs.Debug("[cron] armed job %s (%s) for %s", nextJob.Label, id, nextAt.Format(time.RFC3339))
	m.timer.Arm(nextAt, func() { m.fire(id) })
}

// fire handles one due job: stamp the fire, drop delete-after-run
// one-shots, publish the cron event, invoke the hook, re-arm.
// Persistence failures are logged and never prevent re-arming.
func (m *Manager) fire(id string) {
	job, ok := m.store.Get(id)
	if !ok || !job.Enabled {
		m.RearmTimer()
		return
	}

	now := time.Now()
	job.LastFiredAt = &now

	removed := job.Schedule.Type == ScheduleOneshot && job.DeleteAfterRun
	if removed {
		m.store.Remove(job.ID)
	} else {
		m.store.Update(job)
	}
	if err := m.store.Save(); err != nil {
		logs.Warn("[cron] persist after fire of %s: %v", job.ID, err)
	}

	logs.Info("[cron] fired job %s (%s)", job.Label, job.ID)
	prometheus.CronFiresTotal.Inc()
	m.events.Enqueue(job.EventText(), bus.EventCron)

	if m.OnJobFired != nil {
		m.OnJobFired(job)
	}

	m.RearmTimer()
}

// Stop disarms the current handle. Safe to call repeatedly.
func (m *Manager) Stop() {
	m.timer.Disarm()
}
