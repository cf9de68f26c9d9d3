package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/palaver-ai/pa/internal/session"
)

// writeFakeAgent drops an executable shell script that plays the agent
// binary and returns its path.
func writeFakeAgent(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-agent")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o700); err != nil {
		t.Fatalf("write fake agent: %v", err)
	}
	return path
}

func TestCommandRunnerTurn(t *testing.T) {
	bin := writeFakeAgent(t, `read -r prompt
echo "echo: $prompt"`)

	runner := NewCommandRunner(bin)
	msgs, err := runner.Turn(context.Background(), "hello", "terminal--local", Options{Model: "m1", MaxTurns: 5})
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != session.RoleUser || msgs[0].Content != "hello" {
		t.Errorf("user message = %+v", msgs[0])
	}
	if msgs[1].Role != session.RoleAssistant || msgs[1].Content != "echo: hello" {
		t.Errorf("assistant message = %+v", msgs[1])
	}
}

func TestCommandRunnerNonZeroExitIsError(t *testing.T) {
	bin := writeFakeAgent(t, `echo "boom" >&2
exit 3`)

	runner := NewCommandRunner(bin)
	if _, err := runner.Turn(context.Background(), "hi", "k", Options{}); err == nil {
		t.Fatal("non-zero exit did not error")
	}
}

func TestCommandRunnerEmptyOutputIsError(t *testing.T) {
	bin := writeFakeAgent(t, `exit 0`)

	runner := NewCommandRunner(bin)
	if _, err := runner.Turn(context.Background(), "hi", "k", Options{}); err == nil {
		t.Fatal("empty output did not error")
	}
}

func TestNewCommandRunnerDefault(t *testing.T) {
	if r := NewCommandRunner(""); r.Command != DefaultCommand {
		t.Errorf("default command = %q", r.Command)
	}
}
