package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/palaver-ai/pa/internal/config"
	"github.com/palaver-ai/pa/internal/daemon"
	"github.com/palaver-ai/pa/internal/pkg/logs"
	"github.com/palaver-ai/pa/internal/pkg/updater"
)

var daemonHwd = &DaemonRunner{}

type DaemonRunner struct{}

func (r *DaemonRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "daemon",
		Usage: "Run the assistant daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config.json (default: $PA_CONFIG or ~/.pa/config.json)",
			},
			&cli.BoolFlag{
				Name:  "auto-update",
				Usage: "Periodically check GitHub releases and self-update",
			},
		},
		Action: r.run,
	}
}

func (r *DaemonRunner) run(ctx context.Context, cmd *cli.Command) error {
	cfgPath := config.ResolvePath(cmd.String("config"))
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		fmt.Println("pa is not configured yet. Run \"pa init\" to get started.")
		return nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := initLogger(cfg.Logging); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logs.CtxInfo(ctx, "booting pa daemon, config file: %s", cfgPath)
	logs.CtxDebug(ctx, "effective config: %v", logs.Redact(cfg.Tree()))

	if cmd.Bool("auto-update") {
		go updater.StartAutoUpdate(ctx, updater.New(), 0)
	}

	if err := daemon.New(cfg).Run(ctx); err != nil {
		return fmt.Errorf("run daemon: %w", err)
	}
	logs.CtxInfo(ctx, "all stopped, good bye!")
	return nil
}

func initLogger(cfg config.LoggingConfig) error {
	return logs.Init(logs.Options{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		File:       cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	})
}
