// Package procs tracks background and yielded shell executions so their
// output and exit status can be inspected after the spawning turn has
// returned.
package procs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TTL is how long a session survives after it started before the sweep
// evicts it.
const TTL = 30 * time.Minute

// Session is a snapshot of one tracked execution.
type Session struct {
	ID        string
	PID       int
	Command   string
	Output    string
	ExitCode  *int
	StartedAt time.Time
	ExitedAt  *time.Time
}

// Registry is the injectable process-session table. All methods are safe
// for concurrent use; mutation of an unknown id is a no-op.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a running execution and returns its session id.
func (r *Registry) Add(command string, pid int) string {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &Session{
		ID:        id,
		PID:       pid,
		Command:   command,
		StartedAt: time.Now(),
	}
	return id
}

// Get returns a copy of the session, if present.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// AppendOutput accumulates child stdout/stderr onto the session.
func (r *Registry) AppendOutput(id, chunk string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[id]; ok {
		sess.Output += chunk
	}
}

// MarkExited records the exit observation.
func (r *Registry) MarkExited(id string, code int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[id]; ok {
		now := time.Now()
		sess.ExitCode = &code
		sess.ExitedAt = &now
	}
}

// List returns copies of all tracked sessions.
func (r *Registry) List() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, *sess)
	}
	return out
}

// Sweep evicts sessions older than the TTL. Invoked opportunistically by
// the executor; cheap enough to call on every spawn.
func (r *Registry) Sweep() {
	cutoff := time.Now().Add(-TTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sess := range r.sessions {
		if sess.StartedAt.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*Session)
}

// Len reports the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
