// Package bus holds the in-process system-event queue feeding heartbeats.
// Executor exit hooks and cron fires produce events; the heartbeat
// scheduler consumes them. The queue is bounded: when full, the oldest
// event is discarded so the freshest context always survives.
package bus

import (
	"sync"
	"time"
)

type EventType string

const (
	EventSystem EventType = "system"
	EventExec   EventType = "exec"
	EventCron   EventType = "cron"
)

// Capacity is the maximum number of pending events held at once.
const Capacity = 20

type Event struct {
	Type      EventType `json:"type"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Queue is a bounded FIFO of system events. All methods are safe for
// concurrent use; consumers never block.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends an event stamped with the current time. When the queue
// is at capacity the oldest event is dropped to make room.
func (q *Queue) Enqueue(text string, typ EventType) {
	if typ == "" {
		typ = EventSystem
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, Event{
		Type:      typ,
		Text:      text,
		Timestamp: time.Now(),
	})
	if over := len(q.events) - Capacity; over > 0 {
		q.events = append([]Event(nil), q.events[over:]...)
	}
}

// Peek returns a copy of the pending events in enqueue order.
func (q *Queue) Peek() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Event, len(q.events))
	copy(out, q.events)
	return out
}

// Drain returns the pending events and empties the queue.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.events
	q.events = nil
	return out
}

func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = nil
}

// Len reports the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
