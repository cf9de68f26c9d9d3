package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/palaver-ai/pa/internal/agent"
	"github.com/palaver-ai/pa/internal/config"
	"github.com/palaver-ai/pa/internal/session"
)

var terminalHwd = &TerminalRunner{}

type TerminalRunner struct{}

func (r *TerminalRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "terminal",
		Usage: "Chat with the assistant from this terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config.json",
			},
		},
		Action: r.run,
	}
}

func (r *TerminalRunner) run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(config.ResolvePath(cmd.String("config")))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runner := agent.NewCommandRunner(cfg.Agent.Command)
	opts := agent.OptionsFromConfig(cfg)
	store := session.NewStore(cfg.Security.DataDir)
	sessionKey := session.ResolveKey("terminal", "local")

	historyDir := filepath.Join(cfg.Security.DataDir, "terminal")
	if err := os.MkdirAll(historyDir, 0o700); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	prompt := color.New(color.FgCyan, color.Bold).Sprint("you> ")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(historyDir, "history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "bye",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	assistantLabel := color.New(color.FgGreen, color.Bold).Sprint("pa> ")
	fmt.Println("Type /quit to leave.")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		if text == "/quit" || text == "/exit" {
			return nil
		}

		messages, err := runner.Turn(ctx, text, sessionKey, opts)
		if err != nil {
			color.Red("error: %v", err)
			continue
		}
		if err := store.AppendAll(store.Path(sessionKey), messages); err != nil {
			color.Yellow("warning: transcript not saved: %v", err)
		}

		for _, msg := range messages {
			if msg.Role == session.RoleAssistant {
				fmt.Println(assistantLabel + msg.Content)
			}
		}
	}
}
