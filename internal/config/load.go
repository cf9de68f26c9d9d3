package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"dario.cat/mergo"
	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"

	"github.com/palaver-ai/pa/internal/consts"
)

// ResolvePath picks the config file location. Precedence: explicit path
// (the --config flag) > PA_CONFIG > ~/.pa/config.json. A directory is
// accepted and means "<dir>/config.json".
func ResolvePath(explicit string) string {
	path := strings.TrimSpace(explicit)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(consts.EnvConfigPath))
	}
	if path == "" {
		return consts.DefaultConfigPath()
	}

	path = ExpandHome(path)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, consts.ConfigFileName)
	}
	return path
}

// loadConfigFile reads the user JSON document at path, deep-merges it over
// the defaults (objects merge, arrays and scalars replace), resolves
// ${VAR} references from the environment, and expands leading ~ in path
// options. A missing file at the default location yields pure defaults;
// a missing file at an explicitly requested location is an error (the
// caller asked for that file, silence would hide a typo).
func loadConfigFile(path string, explicit bool) (*Config, error) {
	// Tokens may live in a .env next to the config instead of the JSON.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), consts.EnvFileName))

	base := Default().Tree()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var user map[string]any
		if uerr := sonic.Unmarshal(raw, &user); uerr != nil {
			return nil, fmt.Errorf("parse config json: %w", uerr)
		}
		if merr := mergeTree(base, user); merr != nil {
			return nil, fmt.Errorf("merge config: %w", merr)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults only.
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expandEnvRefs(base)

	merged, err := sonic.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("encode merged config: %w", err)
	}
	var cfg Config
	if err := sonic.Unmarshal(merged, &cfg); err != nil {
		return nil, fmt.Errorf("decode merged config: %w", err)
	}

	cfg.expandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// mergeTree merges src over dst in place. Nested objects merge key by
// key; arrays and scalars present in src replace the dst value, including
// explicit zero values like false and "".
func mergeTree(dst, src map[string]any) error {
	return mergo.Merge(&dst, src, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue)
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvRefs replaces ${VAR} in every string leaf with the value from
// the environment. Unset references are left verbatim so they surface in
// validation errors instead of collapsing to empty strings. Only the
// braced form is recognized; bare $ stays untouched because command
// allowlists and payload text legitimately contain it.
func expandEnvRefs(tree map[string]any) {
	for k, v := range tree {
		tree[k] = expandEnvValue(v)
	}
}

func expandEnvValue(v any) any {
	switch t := v.(type) {
	case string:
		return envRefPattern.ReplaceAllStringFunc(t, func(m string) string {
			name := m[2 : len(m)-1]
			if val, ok := os.LookupEnv(name); ok {
				return val
			}
			return m
		})
	case map[string]any:
		for k, val := range t {
			t[k] = expandEnvValue(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = expandEnvValue(val)
		}
		return t
	default:
		return v
	}
}

// ExpandHome rewrites a leading ~ to the current user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func (c *Config) expandPaths() {
	c.Security.Workspace = ExpandHome(c.Security.Workspace)
	c.Security.DataDir = ExpandHome(c.Security.DataDir)
	for i, dir := range c.Security.AdditionalReadDirs {
		c.Security.AdditionalReadDirs[i] = ExpandHome(dir)
	}
	for i, dir := range c.Security.AdditionalWriteDirs {
		c.Security.AdditionalWriteDirs[i] = ExpandHome(dir)
	}
	for i, p := range c.Memory.ExtraPaths {
		c.Memory.ExtraPaths[i] = ExpandHome(p)
	}
	c.Logging.File = ExpandHome(c.Logging.File)
}
