package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	pa "github.com/palaver-ai/pa"
	"github.com/palaver-ai/pa/internal/pkg/logs"
)

func main() {
	cmd := &cli.Command{
		Name:  "pa",
		Usage: "Your personal assistant daemon",
		Commands: []*cli.Command{
			initHwd.cmd(),
			daemonHwd.cmd(),
			terminalHwd.cmd(),
			msgHwd.cmd(),
			updateHwd.cmd(),
			{
				Name:  "version",
				Usage: "Print the pa version",
				Action: func(_ context.Context, _ *cli.Command) error {
					fmt.Println(pa.VERSION)
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logs.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}
