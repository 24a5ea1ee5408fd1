package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/toolvet/internal/audit"
	"github.com/stellarlinkco/toolvet/internal/catalog"
	"github.com/stellarlinkco/toolvet/internal/config"
	"github.com/stellarlinkco/toolvet/internal/tool"
	"github.com/stellarlinkco/toolvet/internal/watch"
)

var rootCmd = &cobra.Command{
	Use:          "toolvet",
	Short:        "toolvet - tool catalog, invoker and audit harness",
	SilenceUsage: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tools",
	RunE:  runList,
}

var describeCmd = &cobra.Command{
	Use:   "describe <tool>",
	Short: "Show a tool's descriptor and parameter schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

var invokeCmd = &cobra.Command{
	Use:   "invoke <tool>",
	Short: "Invoke a tool with --arg key=value parameters",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoke,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit every registered tool in an isolated subprocess",
	RunE:  runAudit,
}

var checkCmd = &cobra.Command{
	Use:    "check <tool>",
	Short:  "Probe a single tool (audit worker mode)",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE:   runCheck,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize config, workspace and tools directory",
	RunE:  runInit,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the audit on a schedule and on manifest changes",
	RunE:  runWatch,
}

var (
	jsonFlag     bool
	argFlags     []string
	timeoutFlag  int
	auditTimeout int
	auditPool    int
	auditLog     string
)

func init() {
	describeCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")
	invokeCmd.Flags().StringArrayVarP(&argFlags, "arg", "a", nil, "Tool argument as key=value (repeatable)")
	invokeCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output the full invocation envelope as JSON")
	invokeCmd.Flags().IntVar(&timeoutFlag, "timeout", 0, "Invocation timeout in seconds (0 = none)")
	auditCmd.Flags().IntVar(&auditTimeout, "timeout", 0, "Per-tool timeout in seconds (default from config)")
	auditCmd.Flags().IntVar(&auditPool, "pool", 0, "Worker pool size (default from config)")
	auditCmd.Flags().StringVar(&auditLog, "log", "", "Audit log path (default from config)")
	invokeCmd.SilenceErrors = true
	auditCmd.SilenceErrors = true
	checkCmd.SilenceErrors = true
	rootCmd.AddCommand(listCmd, describeCmd, invokeCmd, auditCmd, checkCmd, initCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRegistry() (*tool.Registry, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	registry, err := catalog.BuildRegistry(catalog.Deps{
		Cfg:       cfg,
		Workspace: cfg.Workspace,
		Now:       time.Now,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build registry: %w", err)
	}
	return registry, cfg, nil
}

func runList(cmd *cobra.Command, args []string) error {
	registry, _, err := buildRegistry()
	if err != nil {
		return err
	}
	printList(os.Stdout, registry)
	return nil
}

func printList(w io.Writer, registry *tool.Registry) {
	width := 0
	for name := range registry.All() {
		if len(name) > width {
			width = len(name)
		}
	}
	for name, desc := range registry.All() {
		fmt.Fprintf(w, "%-*s  %s\n", width, name, firstLine(desc))
	}
	fmt.Fprintf(w, "\n%d tools registered\n", registry.Len())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func runDescribe(cmd *cobra.Command, args []string) error {
	registry, _, err := buildRegistry()
	if err != nil {
		return err
	}
	t, err := registry.Get(args[0])
	if err != nil {
		return err
	}
	desc := tool.Descriptor{Name: t.Name(), Description: t.Description(), Params: t.Schema()}
	if jsonFlag {
		data, err := json.MarshalIndent(desc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	printDescriptor(os.Stdout, desc)
	return nil
}

func printDescriptor(w io.Writer, desc tool.Descriptor) {
	fmt.Fprintf(w, "%s\n  %s\n", desc.Name, desc.Description)
	if desc.Params == nil || len(desc.Params.Properties) == 0 {
		fmt.Fprintln(w, "\nParameters: none")
		return
	}
	required := make(map[string]bool, len(desc.Params.Required))
	for _, name := range desc.Params.Required {
		required[name] = true
	}
	names := make([]string, 0, len(desc.Params.Properties))
	for name := range desc.Params.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\nParameters:")
	for _, name := range names {
		p := desc.Params.Properties[name]
		line := fmt.Sprintf("  %s (%s", name, p.Type)
		if required[name] {
			line += ", required"
		}
		line += ")"
		if p.Description != "" {
			line += "  " + p.Description
		}
		if len(p.Enum) > 0 {
			line += fmt.Sprintf("  [%s]", strings.Join(p.Enum, "|"))
		}
		if p.Default != nil {
			line += fmt.Sprintf("  (default %v)", p.Default)
		}
		fmt.Fprintln(w, line)
	}
}

// parseArgValue decodes a --arg value. JSON literals (numbers, booleans,
// arrays, quoted strings) are taken as-is; anything that does not parse as
// JSON is a plain string and the schema coercion sorts out the rest.
func parseArgValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func parseArgs(flags []string) (map[string]any, error) {
	args := make(map[string]any, len(flags))
	for _, f := range flags {
		key, value, found := strings.Cut(f, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --arg %q, want key=value", f)
		}
		args[key] = parseArgValue(value)
	}
	return args, nil
}

func runInvoke(cmd *cobra.Command, args []string) error {
	registry, cfg, err := buildRegistry()
	if err != nil {
		return err
	}
	params, err := parseArgs(argFlags)
	if err != nil {
		return err
	}

	invoker := tool.NewInvoker(registry)
	invoker.SetLenient(cfg.Invoker.Lenient)

	ctx := context.Background()
	if timeoutFlag > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutFlag)*time.Second)
		defer cancel()
	}

	inv := invoker.Invoke(ctx, args[0], params)
	return reportInvocation(os.Stdout, os.Stderr, inv, jsonFlag)
}

func reportInvocation(stdout, stderr io.Writer, inv tool.Invocation, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(inv, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		if !inv.OK {
			return errSilent
		}
		return nil
	}
	if !inv.OK {
		fmt.Fprintf(stderr, "invoke %s failed (%s): %s\n", inv.Tool, inv.Failure.Kind, inv.Failure.Message)
		return errSilent
	}
	if inv.Value.Output != "" {
		fmt.Fprintln(stdout, inv.Value.Output)
	}
	return nil
}

// errSilent signals a nonzero exit after diagnostics were already printed.
var errSilent = errors.New("")

func runAudit(cmd *cobra.Command, args []string) error {
	registry, cfg, err := buildRegistry()
	if err != nil {
		return err
	}
	summary, err := runAuditPass(os.Stdout, registry.Names(), auditOptions(cfg))
	if err != nil {
		return err
	}
	if summary.Failed() {
		return errSilent
	}
	return nil
}

func auditOptions(cfg *config.Config) audit.Options {
	opts := audit.Options{
		Timeout:  time.Duration(cfg.Audit.TimeoutSeconds) * time.Second,
		PoolSize: cfg.Audit.PoolSize,
		LogPath:  cfg.Audit.LogPath,
	}
	if auditTimeout > 0 {
		opts.Timeout = time.Duration(auditTimeout) * time.Second
	}
	if auditPool > 0 {
		opts.PoolSize = auditPool
	}
	if auditLog != "" {
		opts.LogPath = auditLog
	}
	return opts
}

func runAuditPass(w io.Writer, names []string, opts audit.Options) (*audit.Summary, error) {
	harness := audit.New(opts)
	summary, err := harness.Run(context.Background(), names)
	if err != nil {
		return nil, err
	}
	for _, rec := range summary.Records {
		line := fmt.Sprintf("%-8s %s (%s)", rec.Outcome, rec.Tool, rec.Duration.Round(time.Millisecond))
		if rec.Detail != "" {
			line += ": " + rec.Detail
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%s\n", summary)
	return summary, nil
}

// runCheck is the audit worker entrypoint. It prints exactly one status
// line on stdout and exits nonzero on failure; the parent harness parses
// the line rather than trusting the exit code alone.
func runCheck(cmd *cobra.Command, args []string) error {
	name := args[0]
	registry, _, err := buildRegistry()
	if err != nil {
		fmt.Printf("FAILURE: %s: %v\n", name, err)
		return errSilent
	}
	if err := checkTool(context.Background(), registry, name); err != nil {
		fmt.Printf("FAILURE: %s: %v\n", name, err)
		return errSilent
	}
	fmt.Printf("SUCCESS: %s\n", name)
	return nil
}

// checkTool probes one tool without executing it. Registration already
// vetted the schema, so the probe re-checks it against the live instance
// and then runs the tool's own health check when it offers one.
func checkTool(ctx context.Context, registry *tool.Registry, name string) error {
	t, err := registry.Get(name)
	if err != nil {
		return err
	}
	if s := t.Schema(); s != nil {
		if err := s.Check(); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	if c, ok := t.(tool.Checker); ok {
		if err := c.Check(ctx); err != nil {
			return err
		}
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return err
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(cfg.Workspace, 0755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	sampleDir := filepath.Join(cfg.ToolsDir, "hello")
	if err := os.MkdirAll(sampleDir, 0755); err != nil {
		return fmt.Errorf("create tools dir: %w", err)
	}
	writeIfNotExists(filepath.Join(sampleDir, "TOOL.md"), sampleToolMD)

	fmt.Printf("Workspace ready: %s\n", cfg.Workspace)
	fmt.Printf("Tools dir ready: %s\n", cfg.ToolsDir)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'toolvet list' to see the catalog")
	fmt.Println("  2. Run 'toolvet invoke hello --arg name=world' to test")
	fmt.Println("  3. Run 'toolvet audit' to health-check every tool")

	return nil
}

func writeIfNotExists(path, content string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = os.WriteFile(path, []byte(content), 0644)
		fmt.Printf("  Created: %s\n", path)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc := watch.New(watch.Options{
		Schedule: cfg.Audit.Schedule,
		ToolsDir: cfg.ToolsDir,
		Debounce: time.Duration(cfg.Audit.DebounceSeconds) * time.Second,
	}, func(ctx context.Context) error {
		// Rebuild the registry each pass so manifest edits take effect.
		registry, err := catalog.BuildRegistry(catalog.Deps{
			Cfg:       cfg,
			Workspace: cfg.Workspace,
			Now:       time.Now,
		})
		if err != nil {
			return err
		}
		summary, err := runAuditPass(os.Stdout, registry.Names(), auditOptions(cfg))
		if err != nil {
			return err
		}
		if summary.Failed() {
			return fmt.Errorf("%d of %d tools failing", len(summary.Records)-summary.Count(audit.OutcomeSuccess), summary.Total())
		}
		return nil
	})

	return svc.Run(context.Background())
}

const sampleToolMD = `---
name: hello
description: Say hello to someone
command: echo "hello ${TOOL_PARAM_NAME}"
params:
  - name: name
    type: string
    description: Who to greet
    required: true
---

# hello

A minimal manifest tool. The command runs under bash with each declared
parameter exported as TOOL_PARAM_<NAME>.
`
