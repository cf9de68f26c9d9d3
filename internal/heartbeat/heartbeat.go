// Package heartbeat periodically injects a synthetic agent turn. Each
// tick is gated by the configured active hours; the prompt is chosen
// from the pending system events so completed background work and cron
// fires get surfaced before the generic check-in.
package heartbeat

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/palaver-ai/pa/internal/bus"
	"github.com/palaver-ai/pa/internal/config"
	"github.com/palaver-ai/pa/internal/pkg/logs"
	"github.com/palaver-ai/pa/internal/pkg/prometheus"
)

// Source is the adapter-less source name of heartbeat messages.
const Source = "heartbeat"

// OK is the sentinel an agent replies with when no action is warranted.
// The gateway suppresses outbound delivery when it sees it.
const OK = "HEARTBEAT_OK"

var okPattern = regexp.MustCompile(`(?i)^\s*` + OK + `\s*$`)

// IsOK reports whether a response is the sentinel, tolerating case and
// surrounding whitespace but nothing else.
func IsOK(response string) bool {
	return okPattern.MatchString(response)
}

// Callback receives the chosen prompt; it is expected to enqueue a
// synthetic message into the gateway. Failures inside the callback must
// not take the scheduler down.
type Callback func(ctx context.Context, prompt, deliverTo string)

type Scheduler struct {
	cfg       config.HeartbeatConfig
	events    *bus.Queue
	workspace string
	callback  Callback

	stopOnce sync.Once
	stop     chan struct{}

	// now is replaceable so tests can pin the wall clock.
	now func() time.Time
}

func NewScheduler(cfg config.HeartbeatConfig, events *bus.Queue, workspace string, cb Callback) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		events:    events,
		workspace: workspace,
		callback:  cb,
		stop:      make(chan struct{}),
		now:       time.Now,
	}
}

// Start launches the tick loop. When the heartbeat is disabled this is a
// no-op with a still-stoppable handle.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		logs.Info("[heartbeat] disabled")
		return
	}

	interval := time.Duration(s.cfg.IntervalMinutes) * time.Minute
	logs.Info("[heartbeat] every %s, active hours %s, deliver to %s",
		interval, s.cfg.ActiveHours, s.cfg.DeliverTo)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Stop halts the tick loop. Safe to call repeatedly and when disabled.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Tick performs one heartbeat: gate by local wall-clock hour, drain the
// pending system events, pick the prompt and hand it to the callback.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()
	if !s.withinActiveHours(now.Hour()) {
		logs.Debug("[heartbeat] outside active hours (%s), skipping", s.cfg.ActiveHours)
		prometheus.HeartbeatTicksTotal.WithLabelValues("skipped").Inc()
		return
	}

	prompt := s.buildPrompt(now, s.events.Drain())
	prometheus.HeartbeatTicksTotal.WithLabelValues("sent").Inc()

	defer func() {
		if r := recover(); r != nil {
			logs.Error("[heartbeat] callback panicked: %v", r)
		}
	}()
	s.callback(ctx, prompt, s.cfg.DeliverTo)
}

// withinActiveHours checks the [start, end) window; 0-24 means all day
// and start > end wraps past midnight.
func (s *Scheduler) withinActiveHours(hour int) bool {
	start, end, err := config.ParseActiveHours(s.cfg.ActiveHours)
	if err != nil {
		// Misconfiguration was caught at load time; run rather than
		// silently never ticking.
		return true
	}
	switch {
	case start == 0 && end == 24:
		return true
	case start == end:
		return false
	case start < end:
		return hour >= start && hour < end
	default:
		return hour >= start || hour < end
	}
}
