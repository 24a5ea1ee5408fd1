package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stellarlinkco/toolvet/internal/config"
	"github.com/stellarlinkco/toolvet/internal/tool"
)

func TestBuildRegistryBuiltins(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ToolsDir = "" // no manifests
	registry, err := BuildRegistry(Deps{Cfg: cfg, Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}

	want := []string{"echo", "time", "calc", "read_file", "exec", "fetch"}
	names := registry.Names()
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d] = %s, want %s (builder order must be registration order)", i, names[i], want[i])
		}
	}
}

func TestBuildRegistryWithManifests(t *testing.T) {
	toolsDir := t.TempDir()
	manifestDir := filepath.Join(toolsDir, "uptime")
	if err := os.MkdirAll(manifestDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "---\nname: uptime\ndescription: System uptime\ncommand: uptime\n---\n"
	if err := os.WriteFile(filepath.Join(manifestDir, "TOOL.md"), []byte(content), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.ToolsDir = toolsDir
	registry, err := BuildRegistry(Deps{Cfg: cfg, Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}

	if _, err := registry.Get("uptime"); err != nil {
		t.Fatalf("manifest tool not registered: %v", err)
	}
	// Manifest tools come after builtins.
	names := registry.Names()
	if names[len(names)-1] != "uptime" {
		t.Fatalf("names = %v, want uptime last", names)
	}
}

func TestBuildRegistryManifestShadowedByBuiltin(t *testing.T) {
	toolsDir := t.TempDir()
	dir := filepath.Join(toolsDir, "echo")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "---\nname: echo\ncommand: echo shadowed\n---\n"
	if err := os.WriteFile(filepath.Join(dir, "TOOL.md"), []byte(content), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.ToolsDir = toolsDir
	registry, err := BuildRegistry(Deps{Cfg: cfg, Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}

	// Builtin wins; the clash is logged and skipped, not fatal.
	got, err := registry.Get("echo")
	if err != nil {
		t.Fatalf("get echo: %v", err)
	}
	if _, ok := got.(*EchoTool); !ok {
		t.Fatalf("builtin echo replaced by %T", got)
	}
}

func TestEchoTool(t *testing.T) {
	registry := tool.NewRegistry()
	if err := registry.Register(NewEchoTool()); err != nil {
		t.Fatalf("register: %v", err)
	}
	inv := tool.NewInvoker(registry).Invoke(context.Background(), "echo", map[string]any{"text": "hi"})
	if !inv.OK || inv.Value.Output != "hi" {
		t.Fatalf("invocation = %+v", inv)
	}

	inv = tool.NewInvoker(registry).Invoke(context.Background(), "echo", map[string]any{})
	if inv.OK || inv.Failure.Kind != tool.KindMissingParameter {
		t.Fatalf("expected missing parameter failure, got %+v", inv)
	}
}
