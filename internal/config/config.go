package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultExecTimeout      = 60
	DefaultAuditTimeout     = 120
	DefaultAuditPoolSize    = 4
	DefaultFetchTimeout     = 15
	DefaultFetchMaxBytes    = 2 << 20 // 2 MiB
	DefaultWatchDebounceSec = 2
)

type Config struct {
	Workspace string        `json:"workspace"`
	ToolsDir  string        `json:"toolsDir"`
	Invoker   InvokerConfig `json:"invoker"`
	Tools     ToolsConfig   `json:"tools"`
	Fetch     FetchConfig   `json:"fetch"`
	Audit     AuditConfig   `json:"audit"`
}

type InvokerConfig struct {
	// Lenient drops undeclared parameters instead of rejecting the call.
	Lenient bool `json:"lenient"`
}

type ToolsConfig struct {
	ExecTimeout         int  `json:"execTimeout"`
	RestrictToWorkspace bool `json:"restrictToWorkspace"`
}

type FetchConfig struct {
	TimeoutSeconds int   `json:"timeoutSeconds"`
	MaxBytes       int64 `json:"maxBytes"`
}

type AuditConfig struct {
	TimeoutSeconds  int    `json:"timeoutSeconds"`
	PoolSize        int    `json:"poolSize"`
	LogPath         string `json:"logPath"`
	Schedule        string `json:"schedule,omitempty"` // cron spec; empty disables scheduled audits
	DebounceSeconds int    `json:"debounceSeconds"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".toolvet")
	return &Config{
		Workspace: filepath.Join(base, "workspace"),
		ToolsDir:  filepath.Join(base, "tools"),
		Tools: ToolsConfig{
			ExecTimeout:         DefaultExecTimeout,
			RestrictToWorkspace: true,
		},
		Fetch: FetchConfig{
			TimeoutSeconds: DefaultFetchTimeout,
			MaxBytes:       DefaultFetchMaxBytes,
		},
		Audit: AuditConfig{
			TimeoutSeconds:  DefaultAuditTimeout,
			PoolSize:        DefaultAuditPoolSize,
			LogPath:         filepath.Join(base, "audit.log"),
			DebounceSeconds: DefaultWatchDebounceSec,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".toolvet")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if ws := os.Getenv("TOOLVET_WORKSPACE"); ws != "" {
		cfg.Workspace = ws
	}
	if dir := os.Getenv("TOOLVET_TOOLS_DIR"); dir != "" {
		cfg.ToolsDir = dir
	}
	if lenient := os.Getenv("TOOLVET_LENIENT"); lenient != "" {
		if parsed, err := strconv.ParseBool(lenient); err == nil {
			cfg.Invoker.Lenient = parsed
		}
	}
	if timeout := os.Getenv("TOOLVET_AUDIT_TIMEOUT"); timeout != "" {
		if parsed, err := strconv.Atoi(timeout); err == nil {
			cfg.Audit.TimeoutSeconds = parsed
		}
	}
	if pool := os.Getenv("TOOLVET_AUDIT_POOL"); pool != "" {
		if parsed, err := strconv.Atoi(pool); err == nil {
			cfg.Audit.PoolSize = parsed
		}
	}
	if logPath := os.Getenv("TOOLVET_AUDIT_LOG"); logPath != "" {
		cfg.Audit.LogPath = logPath
	}
	if schedule := os.Getenv("TOOLVET_AUDIT_SCHEDULE"); schedule != "" {
		cfg.Audit.Schedule = schedule
	}
	if timeout := os.Getenv("TOOLVET_EXEC_TIMEOUT"); timeout != "" {
		if parsed, err := strconv.Atoi(timeout); err == nil {
			cfg.Tools.ExecTimeout = parsed
		}
	}

	if cfg.Workspace == "" {
		cfg.Workspace = DefaultConfig().Workspace
	}
	if cfg.ToolsDir == "" {
		cfg.ToolsDir = DefaultConfig().ToolsDir
	}
	if cfg.Tools.ExecTimeout <= 0 {
		cfg.Tools.ExecTimeout = DefaultExecTimeout
	}
	if cfg.Fetch.TimeoutSeconds <= 0 {
		cfg.Fetch.TimeoutSeconds = DefaultFetchTimeout
	}
	if cfg.Fetch.MaxBytes <= 0 {
		cfg.Fetch.MaxBytes = DefaultFetchMaxBytes
	}
	if cfg.Audit.TimeoutSeconds <= 0 {
		cfg.Audit.TimeoutSeconds = DefaultAuditTimeout
	}
	if cfg.Audit.PoolSize <= 0 {
		cfg.Audit.PoolSize = DefaultAuditPoolSize
	}
	if cfg.Audit.LogPath == "" {
		cfg.Audit.LogPath = DefaultConfig().Audit.LogPath
	}
	if cfg.Audit.DebounceSeconds <= 0 {
		cfg.Audit.DebounceSeconds = DefaultWatchDebounceSec
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
