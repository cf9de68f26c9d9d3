package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/palaver-ai/pa/internal/consts"
)

type (
	Config struct {
		Security  SecurityConfig  `json:"security"`
		Adapters  AdaptersConfig  `json:"adapters"`
		Heartbeat HeartbeatConfig `json:"heartbeat"`
		Gateway   GatewayConfig   `json:"gateway"`
		Agent     AgentConfig     `json:"agent"`
		Session   SessionConfig   `json:"session"`
		Memory    MemoryConfig    `json:"memory"`
		Logging   LoggingConfig   `json:"logging"`
	}

	SecurityConfig struct {
		AllowedCommands                []string `json:"allowedCommands"`
		CommandsNeedingExtraValidation []string `json:"commandsNeedingExtraValidation"`
		Workspace                      string   `json:"workspace"`
		DataDir                        string   `json:"dataDir"`
		AdditionalReadDirs             []string `json:"additionalReadDirs"`
		AdditionalWriteDirs            []string `json:"additionalWriteDirs"`
	}

	AdaptersConfig struct {
		Telegram TelegramConfig `json:"telegram"`
		Slack    SlackConfig    `json:"slack"`
		HTTP     HTTPAPIConfig  `json:"http"`
	}

	TelegramConfig struct {
		Enabled        bool    `json:"enabled"`
		BotToken       string  `json:"botToken"`
		AllowedUserIDs []int64 `json:"allowedUserIds"`
		Mode           string  `json:"mode"` // polling | webhook
	}

	SlackConfig struct {
		Enabled    bool   `json:"enabled"`
		BotToken   string `json:"botToken"`
		AppToken   string `json:"appToken"`
		SocketMode bool   `json:"socketMode"`
	}

	HTTPAPIConfig struct {
		Enabled bool `json:"enabled"`
	}

	HeartbeatConfig struct {
		Enabled         bool   `json:"enabled"`
		IntervalMinutes int    `json:"intervalMinutes"`
		ActiveHours     string `json:"activeHours"` // "H1-H2", local hours, [H1,H2)
		DeliverTo       string `json:"deliverTo"`
	}

	GatewayConfig struct {
		MaxQueueSize int    `json:"maxQueueSize"`
		Bind         string `json:"bind"`
		MetricsBind  string `json:"metricsBind"`
	}

	AgentConfig struct {
		Model    string `json:"model"`
		MaxTurns int    `json:"maxTurns"`
		Command  string `json:"command"`
	}

	SessionConfig struct {
		MaxHistoryMessages int  `json:"maxHistoryMessages"`
		CompactionEnabled  bool `json:"compactionEnabled"`
	}

	MemoryConfig struct {
		Search     map[string]any `json:"search,omitempty"`
		ExtraPaths []string       `json:"extraPaths"`
	}

	LoggingConfig struct {
		Level      string `json:"level"`  // debug, info, warn, error
		Format     string `json:"format"` // json, text
		Output     string `json:"output"` // stdout, file, both
		File       string `json:"file"`
		MaxSize    int    `json:"maxSize"` // MB
		MaxBackups int    `json:"maxBackups"`
		MaxAge     int    `json:"maxAge"` // days
	}
)

// Default returns the compiled-in configuration the user file is merged
// over. Every recognized option has a value here.
func Default() *Config {
	return &Config{
		Security: SecurityConfig{
			AllowedCommands: []string{
				"ls", "cat", "grep", "head", "tail", "echo", "pwd", "wc",
				"date", "find", "sort", "uniq", "cut", "stat", "file",
				"du", "df", "which", "uname", "ps",
				"mkdir", "cp", "mv", "touch", "rm", "kill",
			},
			CommandsNeedingExtraValidation: []string{"rm", "kill"},
			Workspace:                      consts.DefaultWorkspaceDir(),
			DataDir:                        consts.DefaultDataDir(),
			AdditionalReadDirs:             []string{},
			AdditionalWriteDirs:            []string{},
		},
		Adapters: AdaptersConfig{
			Telegram: TelegramConfig{Mode: "polling"},
			Slack:    SlackConfig{SocketMode: true},
		},
		Heartbeat: HeartbeatConfig{
			IntervalMinutes: 30,
			ActiveHours:     "8-22",
		},
		Gateway: GatewayConfig{
			MaxQueueSize: 20,
			Bind:         "127.0.0.1:7788",
		},
		Agent: AgentConfig{
			MaxTurns: 20,
			Command:  "pa-agent",
		},
		Session: SessionConfig{
			MaxHistoryMessages: 200,
		},
		Memory: MemoryConfig{
			ExtraPaths: []string{},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "both",
			File:       consts.DefaultLogFile(),
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Clone returns a deep copy via a JSON round trip.
func (c *Config) Clone() (*Config, error) {
	if c == nil {
		return nil, fmt.Errorf("config is nil")
	}

	raw, err := sonic.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	var cloned Config
	if err := sonic.Unmarshal(raw, &cloned); err != nil {
		return nil, fmt.Errorf("unmarshal config clone: %w", err)
	}

	return &cloned, nil
}

// Tree returns the config as a generic map, for redacted logging.
func (c *Config) Tree() map[string]any {
	raw, err := sonic.Marshal(c)
	if err != nil {
		return nil
	}
	var tree map[string]any
	if err := sonic.Unmarshal(raw, &tree); err != nil {
		return nil
	}
	return tree
}

// Hash is a stable digest of the effective config, logged at startup so
// operators can tell which configuration a daemon instance is running.
func (c *Config) Hash() string {
	json := sonic.Config{SortMapKeys: true, UseNumber: true}.Froze()
	raw, _ := json.Marshal(c)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
