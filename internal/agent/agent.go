// Package agent defines the contract between the daemon and the LLM
// agent. The agent itself is an external collaborator: the shipped
// implementation shells out to a configured binary and treats its
// stdout as the assistant reply.
package agent

import (
	"context"

	"github.com/palaver-ai/pa/internal/config"
	"github.com/palaver-ai/pa/internal/session"
)

// Options carries the per-turn agent parameters derived from config.
type Options struct {
	Model     string
	MaxTurns  int
	Workspace string
	DataDir   string
}

// Turn runs one agent turn for a session and returns the messages it
// produced, assistant reply last. Implementations must honor ctx
// cancellation.
type Turn func(ctx context.Context, text, sessionKey string, opts Options) ([]session.Message, error)

// OptionsFromConfig builds turn options from the effective config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Model:     cfg.Agent.Model,
		MaxTurns:  cfg.Agent.MaxTurns,
		Workspace: cfg.Security.Workspace,
		DataDir:   cfg.Security.DataDir,
	}
}
