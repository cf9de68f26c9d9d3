// Package shell spawns commands on behalf of the agent. Every execution
// passes the security gate first; background and yielded executions are
// tracked in the process registry and report their exit through the
// system-event queue.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/palaver-ai/pa/internal/bus"
	"github.com/palaver-ai/pa/internal/pkg/logs"
	"github.com/palaver-ai/pa/internal/procs"
	"github.com/palaver-ai/pa/internal/security"
)

type Options struct {
	Command    string `json:"command"`
	Background bool   `json:"background,omitempty"`
	YieldMs    int    `json:"yieldMs,omitempty"`
}

type Result struct {
	Success   bool   `json:"success"`
	Output    string `json:"output,omitempty"`
	ExitCode  *int   `json:"exitCode,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message,omitempty"`
}

type Executor struct {
	gate     *security.Gate
	registry *procs.Registry
	events   *bus.Queue
	workdir  string
}

func NewExecutor(gate *security.Gate, registry *procs.Registry, events *bus.Queue, workdir string) *Executor {
	return &Executor{
		gate:     gate,
		registry: registry,
		events:   events,
		workdir:  workdir,
	}
}

// Exec classifies and runs a command. Foreground executions wait for the
// child; background executions return a session id immediately; yielded
// executions race the child's exit against the yield timer and return
// whichever resolves first. The executor never cancels a child it has
// handed off; shutdown relies on process exit to reap them.
func (e *Executor) Exec(ctx context.Context, opts Options) Result {
	command := strings.TrimSpace(opts.Command)

	if verdict := e.gate.Classify(command); !verdict.Allowed {
		logs.CtxWarn(ctx, "[shell] blocked: %s (%s)", command, verdict.Reason)
		return Result{Success: false, Message: verdict.Reason}
	}

	// Opportunistic eviction of stale sessions.
	e.registry.Sweep()

	cmd := exec.Command("sh", "-c", command)
	if e.workdir != "" {
		cmd.Dir = e.workdir
	}
	setProcessGroup(cmd)

	output := &syncBuffer{}
	cmd.Stdout = output
	cmd.Stderr = output

	if err := cmd.Start(); err != nil {
		return Result{Success: false, Message: fmt.Sprintf("start command: %v", err)}
	}

	switch {
	case opts.Background:
		return e.runBackground(ctx, cmd, command, output)
	case opts.YieldMs > 0:
		return e.runYield(ctx, cmd, command, output, time.Duration(opts.YieldMs)*time.Millisecond)
	default:
		return e.runForeground(ctx, cmd, output)
	}
}

func (e *Executor) runForeground(ctx context.Context, cmd *exec.Cmd, output *syncBuffer) Result {
	code := waitExit(cmd)
	logs.CtxDebug(ctx, "[shell] exited with code %d", code)
	return Result{
		Success:  code == 0,
		Output:   output.String(),
		ExitCode: &code,
	}
}

func (e *Executor) runBackground(ctx context.Context, cmd *exec.Cmd, command string, output *syncBuffer) Result {
	id := e.registry.Add(command, cmd.Process.Pid)
	exited := e.armExitHook(cmd, id, output)
	go func() { e.publishExit(command, <-exited) }()

	logs.CtxInfo(ctx, "[shell] background session %s started (pid %d)", id, cmd.Process.Pid)
	return Result{
		Success:   true,
		SessionID: id,
		Message:   fmt.Sprintf("started in background, session %s", id),
	}
}

func (e *Executor) runYield(ctx context.Context, cmd *exec.Cmd, command string, output *syncBuffer, yield time.Duration) Result {
	id := e.registry.Add(command, cmd.Process.Pid)
	exited := e.armExitHook(cmd, id, output)

	timer := time.NewTimer(yield)
	defer timer.Stop()

	select {
	case code := <-exited:
		// The caller sees the outcome synchronously; no system-event.
		return Result{
			Success:   code == 0,
			Output:    output.String(),
			ExitCode:  &code,
			SessionID: id,
		}
	case <-timer.C:
		// The child keeps running with the exit hook still armed; its
		// completion surfaces later as an exec system-event.
		logs.CtxInfo(ctx, "[shell] yielded after %v, session %s still running", yield, id)
		go func() { e.publishExit(command, <-exited) }()
		return Result{
			Success:   true,
			Output:    output.String(),
			SessionID: id,
		}
	}
}

// armExitHook watches the child and, on exit, records the outcome in the
// registry. The returned channel receives the exit code exactly once;
// paths that do not deliver the outcome to the caller forward it to
// publishExit.
func (e *Executor) armExitHook(cmd *exec.Cmd, id string, output *syncBuffer) <-chan int {
	exited := make(chan int, 1)

	go func() {
		code := waitExit(cmd)

		e.registry.AppendOutput(id, output.String())
		e.registry.MarkExited(id, code)
		exited <- code
	}()

	return exited
}

func (e *Executor) publishExit(command string, code int) {
	e.events.Enqueue(
		fmt.Sprintf("Background process exited: %s (exit code %d)", command, code),
		bus.EventExec,
	)
}

// waitExit blocks until the child exits and normalizes the exit code.
func waitExit(cmd *exec.Cmd) int {
	err := cmd.Wait()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// syncBuffer accumulates stdout and stderr into one growing string, safe
// for the two pipe-copy writers plus snapshot reads from the yield path.
type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
