package heartbeat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/palaver-ai/pa/internal/bus"
	"github.com/palaver-ai/pa/internal/consts"
)

// buildPrompt selects the heartbeat prompt by event priority: the first
// pending exec event wins, then the first cron event, then the standard
// time-stamped check-in.
func (s *Scheduler) buildPrompt(now time.Time, pending []bus.Event) string {
	if ev, ok := firstOfType(pending, bus.EventExec); ok {
		return fmt.Sprintf(
			"A background process you started has finished: %s\n"+
				"Review the outcome and follow up if needed. "+
				"If no action is warranted, reply with exactly %s.",
			ev.Text, OK)
	}

	if ev, ok := firstOfType(pending, bus.EventCron); ok {
		return fmt.Sprintf(
			"A scheduled reminder is due: %s\n"+
				"Act on it now. If no action is warranted, reply with exactly %s.",
			ev.Text, OK)
	}

	prompt := fmt.Sprintf(
		"Heartbeat check-in at %s. Look for anything that needs attention.",
		now.Format(time.RFC3339))
	if checklist := s.readChecklist(); checklist != "" {
		prompt += "\n\nYour standing checklist:\n" + checklist
	}
	return prompt + fmt.Sprintf(
		"\n\nIf no action is warranted, reply with exactly %s.", OK)
}

func firstOfType(events []bus.Event, typ bus.EventType) (bus.Event, bool) {
	for _, ev := range events {
		if ev.Type == typ {
			return ev, true
		}
	}
	return bus.Event{}, false
}

// readChecklist returns the workspace HEARTBEAT.md contents when the
// file carries actionable lines. Headings and HTML comments alone do not
// count as work.
func (s *Scheduler) readChecklist() string {
	if s.workspace == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(s.workspace, consts.HeartbeatFileName))
	if err != nil {
		return ""
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return ""
	}

	hasWork := false
	inComment := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if inComment {
			if strings.Contains(trimmed, "-->") {
				inComment = false
			}
			continue
		}
		if strings.HasPrefix(trimmed, "<!--") {
			if !strings.Contains(trimmed, "-->") {
				inComment = true
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		hasWork = true
		break
	}

	if !hasWork {
		return ""
	}
	return content
}
