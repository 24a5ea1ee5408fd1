package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TOOLVET_WORKSPACE", "TOOLVET_TOOLS_DIR", "TOOLVET_LENIENT",
		"TOOLVET_AUDIT_TIMEOUT", "TOOLVET_AUDIT_POOL", "TOOLVET_AUDIT_LOG",
		"TOOLVET_AUDIT_SCHEDULE", "TOOLVET_EXEC_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if cfg.Tools.ExecTimeout != DefaultExecTimeout {
		t.Errorf("execTimeout = %d, want %d", cfg.Tools.ExecTimeout, DefaultExecTimeout)
	}
	if !cfg.Tools.RestrictToWorkspace {
		t.Error("restrictToWorkspace should be true by default")
	}
	if cfg.Audit.TimeoutSeconds != DefaultAuditTimeout {
		t.Errorf("audit timeout = %d, want %d", cfg.Audit.TimeoutSeconds, DefaultAuditTimeout)
	}
	if cfg.Audit.PoolSize != DefaultAuditPoolSize {
		t.Errorf("audit pool = %d, want %d", cfg.Audit.PoolSize, DefaultAuditPoolSize)
	}
	if cfg.Invoker.Lenient {
		t.Error("invoker should be strict by default")
	}
	if cfg.Workspace == "" || cfg.ToolsDir == "" {
		t.Error("workspace and toolsDir should not be empty")
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Audit.TimeoutSeconds != DefaultAuditTimeout {
		t.Errorf("expected default audit timeout, got %d", cfg.Audit.TimeoutSeconds)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	clearEnv(t)

	dir := filepath.Join(tmpDir, ".toolvet")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	raw := map[string]any{
		"toolsDir": "/opt/tools",
		"invoker":  map[string]any{"lenient": true},
		"audit":    map[string]any{"timeoutSeconds": 30, "poolSize": 2},
	}
	data, _ := json.Marshal(raw)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.ToolsDir != "/opt/tools" {
		t.Errorf("toolsDir = %q", cfg.ToolsDir)
	}
	if !cfg.Invoker.Lenient {
		t.Error("lenient not loaded from file")
	}
	if cfg.Audit.TimeoutSeconds != 30 || cfg.Audit.PoolSize != 2 {
		t.Errorf("audit = %+v", cfg.Audit)
	}
	// Unset sections keep their defaults.
	if cfg.Tools.ExecTimeout != DefaultExecTimeout {
		t.Errorf("execTimeout = %d, want default", cfg.Tools.ExecTimeout)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	clearEnv(t)
	t.Setenv("TOOLVET_TOOLS_DIR", "/env/tools")
	t.Setenv("TOOLVET_AUDIT_TIMEOUT", "7")
	t.Setenv("TOOLVET_AUDIT_POOL", "9")
	t.Setenv("TOOLVET_LENIENT", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.ToolsDir != "/env/tools" {
		t.Errorf("toolsDir = %q", cfg.ToolsDir)
	}
	if cfg.Audit.TimeoutSeconds != 7 || cfg.Audit.PoolSize != 9 {
		t.Errorf("audit = %+v", cfg.Audit)
	}
	if !cfg.Invoker.Lenient {
		t.Error("TOOLVET_LENIENT not applied")
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	clearEnv(t)

	dir := filepath.Join(tmpDir, ".toolvet")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	clearEnv(t)

	cfg := DefaultConfig()
	cfg.Audit.Schedule = "0 0 3 * * *"
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig error: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if loaded.Audit.Schedule != cfg.Audit.Schedule {
		t.Errorf("schedule = %q, want %q", loaded.Audit.Schedule, cfg.Audit.Schedule)
	}
}
