package cron

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/gg/gconv"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Outcome is the uniform result of a job-management action. Failures are
// values, never errors; Message explains them.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func failure(format string, args ...any) Outcome {
	return Outcome{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Handler applies management actions to the store. It does not touch the
// timer; the owning manager re-arms after mutations.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Handle dispatches a single action. Recognized actions are add, list,
// update and remove; anything else fails with "unknown action".
func (h *Handler) Handle(action string, args map[string]any) Outcome {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "add":
		return h.add(args)
	case "list":
		return Outcome{Success: true, Data: h.store.List()}
	case "update":
		return h.update(args)
	case "remove":
		return h.remove(args)
	default:
		return failure("unknown action")
	}
}

func (h *Handler) add(args map[string]any) Outcome {
	label := strings.TrimSpace(gconv.To[string](args["label"]))
	if label == "" {
		return failure("label is required")
	}

	schedule, err := decodeSchedule(args["schedule"])
	if err != nil {
		return failure("schedule: %v", err)
	}

	payload, ok, err := decodePayload(args["payload"])
	if err != nil {
		return failure("payload: %v", err)
	}
	if !ok {
		return failure("payload is required")
	}

	job := Job{
		ID:             uuid.NewString(),
		Label:          label,
		Schedule:       schedule,
		Payload:        payload,
		CreatedAt:      time.Now(),
		LastFiredAt:    nil,
		Enabled:        true,
		DeleteAfterRun: gconv.To[bool](args["deleteAfterRun"]),
	}

	if err := h.store.Add(job); err != nil {
		return failure("add job: %v", err)
	}
	if err := h.store.Save(); err != nil {
		return failure("persist job: %v", err)
	}
	return Outcome{Success: true, Message: fmt.Sprintf("job %s added", job.ID), Data: job}
}

func (h *Handler) update(args map[string]any) Outcome {
	id := strings.TrimSpace(gconv.To[string](args["id"]))
	if id == "" {
		return failure("id is required")
	}

	job, found := h.store.Get(id)
	if !found {
		return failure("job not found: %s", id)
	}

	if raw, present := args["label"]; present {
		label := strings.TrimSpace(gconv.To[string](raw))
		if label == "" {
			return failure("label cannot be empty")
		}
		job.Label = label
	}
	if raw, present := args["schedule"]; present {
		schedule, err := decodeSchedule(raw)
		if err != nil {
			return failure("schedule: %v", err)
		}
		job.Schedule = schedule
	}
	if raw, present := args["payload"]; present {
		payload, ok, err := decodePayload(raw)
		if err != nil {
			return failure("payload: %v", err)
		}
		if ok {
			job.Payload = payload
		}
	}
	if raw, present := args["enabled"]; present {
		job.Enabled = gconv.To[bool](raw)
	}

	h.store.Update(job)
	if err := h.store.Save(); err != nil {
		return failure("persist job: %v", err)
	}
	return Outcome{Success: true, Message: fmt.Sprintf("job %s updated", id), Data: job}
}

func (h *Handler) remove(args map[string]any) Outcome {
	id := strings.TrimSpace(gconv.To[string](args["id"]))
	if id == "" {
		return failure("id is required")
	}
	if _, found := h.store.Get(id); !found {
		return failure("job not found: %s", id)
	}

	h.store.Remove(id)
	if err := h.store.Save(); err != nil {
		return failure("persist removal: %v", err)
	}
	return Outcome{Success: true, Message: fmt.Sprintf("job %s removed", id)}
}

// decodeSchedule accepts either a Schedule value or the generic map shape
// arriving from JSON arguments.
func decodeSchedule(raw any) (Schedule, error) {
	if raw == nil {
		return Schedule{}, fmt.Errorf("is required")
	}
	if sched, ok := raw.(Schedule); ok {
		return validateSchedule(sched)
	}

	data, err := sonic.Marshal(raw)
	if err != nil {
		return Schedule{}, fmt.Errorf("encode: %w", err)
	}
	var sched Schedule
	if err := sonic.Unmarshal(data, &sched); err != nil {
		return Schedule{}, fmt.Errorf("decode: %w", err)
	}
	return validateSchedule(sched)
}

func validateSchedule(sched Schedule) (Schedule, error) {
	switch sched.Type {
	case ScheduleCron:
		if _, err := cronParser.Parse(sched.Expression); err != nil {
			return Schedule{}, fmt.Errorf("invalid cron expression %q: %w", sched.Expression, err)
		}
	case ScheduleOneshot:
		if _, err := time.Parse(time.RFC3339, sched.ISO); err != nil {
			return Schedule{}, fmt.Errorf("invalid oneshot instant %q: %w", sched.ISO, err)
		}
	case ScheduleInterval:
		if sched.EveryMs <= 0 {
			return Schedule{}, fmt.Errorf("everyMs must be positive, got %d", sched.EveryMs)
		}
	default:
		return Schedule{}, fmt.Errorf("unknown schedule type %q", sched.Type)
	}
	return sched, nil
}

func decodePayload(raw any) (Payload, bool, error) {
	if raw == nil {
		return Payload{}, false, nil
	}
	switch v := raw.(type) {
	case Payload:
		return v, v.Text != "", nil
	case string:
		return Payload{Text: v}, strings.TrimSpace(v) != "", nil
	default:
		data, err := sonic.Marshal(raw)
		if err != nil {
			return Payload{}, false, fmt.Errorf("encode: %w", err)
		}
		var payload Payload
		if err := sonic.Unmarshal(data, &payload); err != nil {
			return Payload{}, false, fmt.Errorf("decode: %w", err)
		}
		return payload, payload.Text != "", nil
	}
}
