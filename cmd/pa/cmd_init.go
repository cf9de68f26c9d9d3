package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/urfave/cli/v3"

	"github.com/palaver-ai/pa/internal/config"
	"github.com/palaver-ai/pa/internal/consts"
	"github.com/palaver-ai/pa/internal/workspace"
)

var initHwd = &InitRunner{}

type InitRunner struct{}

func (r *InitRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write the default config and bootstrap the workspace",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing workspace templates",
			},
		},
		Action: r.run,
	}
}

func (r *InitRunner) run(_ context.Context, cmd *cli.Command) error {
	cfgPath := consts.DefaultConfigPath()
	cfg := config.Default()

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(cfgPath), 0o700); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		raw, err := sonic.ConfigDefault.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal default config: %w", err)
		}
		if err := os.WriteFile(cfgPath, raw, 0o600); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Wrote default config to %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists at %s, leaving it alone\n", cfgPath)
	}

	if err := workspace.Bootstrap(cfg.Security.Workspace, cmd.Bool("force")); err != nil {
		return fmt.Errorf("bootstrap workspace: %w", err)
	}
	if err := os.MkdirAll(cfg.Security.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	fmt.Printf("Workspace ready at %s\n", cfg.Security.Workspace)
	fmt.Println("Edit the config, then run \"pa daemon\" to start.")
	return nil
}
