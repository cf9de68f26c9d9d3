package agent

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/palaver-ai/pa/internal/pkg/logs"
	"github.com/palaver-ai/pa/internal/session"
)

// DefaultCommand is the agent binary used when agent.command is unset.
const DefaultCommand = "pa-agent"

// turnTimeout bounds a single agent turn.
const turnTimeout = 10 * time.Minute

// CommandRunner bridges turns to an external agent process. The prompt
// goes in on stdin; the assistant reply comes back on stdout.
type CommandRunner struct {
	Command string
}

func NewCommandRunner(command string) *CommandRunner {
	if command == "" {
		command = DefaultCommand
	}
	return &CommandRunner{Command: command}
}

// Turn satisfies the Turn contract. Non-zero exit or empty output is a
// turn error.
func (r *CommandRunner) Turn(ctx context.Context, text, sessionKey string, opts Options) ([]session.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	args := []string{"--session-key", sessionKey}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(opts.MaxTurns))
	}
	if opts.Workspace != "" {
		args = append(args, "--workspace", opts.Workspace)
	}
	if opts.DataDir != "" {
		args = append(args, "--data-dir", opts.DataDir)
	}

	cmd := exec.CommandContext(ctx, r.Command, args...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)

	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("agent command %q: %s", r.Command, detail)
	}

	reply := strings.TrimSpace(stdout.String())
	if reply == "" {
		return nil, fmt.Errorf("agent command %q produced no output", r.Command)
	}

	logs.CtxDebug(ctx, "[agent] turn for %s completed in %s", sessionKey, elapsed.Round(time.Millisecond))

	return []session.Message{
		session.NewMessage(session.RoleUser, text),
		session.NewMessage(session.RoleAssistant, reply),
	}, nil
}
