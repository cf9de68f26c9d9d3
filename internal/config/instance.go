package config

import (
	"fmt"
	"strings"
	"sync"
)

var defaultManager = &InstanceManager{}

// InstanceManager holds the loaded config for process-wide access.
// Load parses and validates; Get hands out clones so callers cannot
// mutate shared state.
type InstanceManager struct {
	path   string
	loaded bool
	cfg    *Config

	mu sync.RWMutex
}

func (ins *InstanceManager) Get() (*Config, error) {
	if ins == nil {
		return nil, fmt.Errorf("instance manager is nil")
	}

	ins.mu.RLock()
	defer ins.mu.RUnlock()

	if !ins.loaded || ins.cfg == nil {
		return nil, fmt.Errorf("config is not loaded")
	}

	return ins.cfg.Clone()
}

// Load reads the config selected by path (see ResolvePath) and installs it
// as the process config. An empty path falls back to PA_CONFIG and then
// the default location; explicitly requested files must exist.
func (ins *InstanceManager) Load(path string) (*Config, error) {
	if ins == nil {
		return nil, fmt.Errorf("instance manager is nil")
	}

	ins.mu.Lock()
	defer ins.mu.Unlock()

	explicit := strings.TrimSpace(path) != ""
	resolved := ResolvePath(path)

	cfg, err := loadConfigFile(resolved, explicit)
	if err != nil {
		return nil, err
	}

	ins.path = resolved
	ins.cfg = cfg
	ins.loaded = true
	return cfg.Clone()
}

// Path returns the file the current config was loaded from.
func (ins *InstanceManager) Path() string {
	ins.mu.RLock()
	defer ins.mu.RUnlock()
	return ins.path
}

func Load(path string) (*Config, error) {
	return defaultManager.Load(path)
}

func Get() (*Config, error) {
	return defaultManager.Get()
}

func Path() string {
	return defaultManager.Path()
}
