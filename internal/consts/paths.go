package consts

import (
	"os"
	"path/filepath"
)

const (
	PaDirName      = ".pa"
	ConfigFileName = "config.json"
	EnvFileName    = ".env"

	// EnvConfigPath overrides the config file location when set.
	// Precedence: --config flag > PA_CONFIG > DefaultConfigPath.
	EnvConfigPath = "PA_CONFIG"
)

func PaHomeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, PaDirName)
}

func DefaultConfigPath() string {
	return filepath.Join(PaHomeDir(), ConfigFileName)
}

func DefaultWorkspaceDir() string {
	return filepath.Join(PaHomeDir(), "workspace")
}

func DefaultDataDir() string {
	return filepath.Join(PaHomeDir(), "data")
}

func DefaultLogFile() string {
	return filepath.Join(DefaultDataDir(), "logs", "pa.log")
}
