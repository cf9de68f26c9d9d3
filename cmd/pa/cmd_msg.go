package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/urfave/cli/v3"

	"github.com/palaver-ai/pa/internal/config"
)

var msgHwd = &MsgRunner{}

type MsgRunner struct{}

func (r *MsgRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "msg",
		Usage: "Send one message through the running daemon and print the reply",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "text",
				Aliases: []string{"m"},
				Usage:   "Message body",
			},
			&cli.StringFlag{
				Name:  "user-id",
				Usage: "Optional user id recorded with the message",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config.json",
			},
		},
		Action: r.run,
	}
}

func (r *MsgRunner) run(ctx context.Context, cmd *cli.Command) error {
	text := strings.TrimSpace(cmd.String("text"))
	if text == "" {
		return errors.New("--text cannot be empty")
	}

	cfg, err := config.Load(config.ResolvePath(cmd.String("config")))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	body, err := sonic.Marshal(map[string]string{
		"message": text,
		"userId":  cmd.String("user-id"),
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("http://%s/api/v1/message", cfg.Gateway.Bind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 6 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("is the daemon running? request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var reply struct {
		Reply string `json:"reply"`
	}
	if err := sonic.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	fmt.Println(reply.Reply)
	return nil
}
