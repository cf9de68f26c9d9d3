package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate normalizes derived defaults and rejects contradictory settings.
// Called after merge, before the config is handed to any component.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}

	if strings.TrimSpace(c.Security.Workspace) == "" {
		return errors.New("security.workspace is required")
	}
	if strings.TrimSpace(c.Security.DataDir) == "" {
		return errors.New("security.dataDir is required")
	}

	if c.Gateway.MaxQueueSize <= 0 {
		c.Gateway.MaxQueueSize = 20
	}
	c.Gateway.Bind = strings.TrimSpace(c.Gateway.Bind)
	c.Gateway.MetricsBind = strings.TrimSpace(c.Gateway.MetricsBind)

	mode := strings.ToLower(strings.TrimSpace(c.Adapters.Telegram.Mode))
	if mode == "" {
		mode = "polling"
	}
	switch mode {
	case "polling", "webhook":
	default:
		return fmt.Errorf("adapters.telegram.mode must be polling or webhook, got %q", c.Adapters.Telegram.Mode)
	}
	c.Adapters.Telegram.Mode = mode

	if c.Adapters.Telegram.Enabled && strings.TrimSpace(c.Adapters.Telegram.BotToken) == "" {
		return errors.New("adapters.telegram.botToken is required when telegram is enabled")
	}
	if c.Adapters.Slack.Enabled {
		if strings.TrimSpace(c.Adapters.Slack.BotToken) == "" {
			return errors.New("adapters.slack.botToken is required when slack is enabled")
		}
		if c.Adapters.Slack.SocketMode && strings.TrimSpace(c.Adapters.Slack.AppToken) == "" {
			return errors.New("adapters.slack.appToken is required for socket mode")
		}
	}

	if c.Heartbeat.IntervalMinutes <= 0 {
		c.Heartbeat.IntervalMinutes = 30
	}
	c.Heartbeat.ActiveHours = strings.TrimSpace(c.Heartbeat.ActiveHours)
	if c.Heartbeat.ActiveHours == "" {
		c.Heartbeat.ActiveHours = "8-22"
	}
	if _, _, err := ParseActiveHours(c.Heartbeat.ActiveHours); err != nil {
		return fmt.Errorf("heartbeat.activeHours: %w", err)
	}
	if c.Heartbeat.Enabled && strings.TrimSpace(c.Heartbeat.DeliverTo) == "" {
		return errors.New("heartbeat.deliverTo is required when heartbeat is enabled")
	}

	if c.Agent.MaxTurns <= 0 {
		c.Agent.MaxTurns = 20
	}
	if strings.TrimSpace(c.Agent.Command) == "" {
		c.Agent.Command = "pa-agent"
	}

	if c.Session.MaxHistoryMessages <= 0 {
		c.Session.MaxHistoryMessages = 200
	}

	return nil
}

// ParseActiveHours parses the "H1-H2" active-hours window. Both hours are
// integers in [0,24]; zero padding is accepted. "0-24" means all day.
// Start greater than end denotes a window wrapping past midnight.
func ParseActiveHours(spec string) (start, end int, err error) {
	parts := strings.SplitN(strings.TrimSpace(spec), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want \"start-end\", got %q", spec)
	}

	start, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("start hour %q is not a number", parts[0])
	}
	end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("end hour %q is not a number", parts[1])
	}

	if start < 0 || start > 24 || end < 0 || end > 24 {
		return 0, 0, fmt.Errorf("hours must be within 0..24, got %d-%d", start, end)
	}
	return start, end, nil
}
