package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/stellarlinkco/toolvet/internal/tool"
)

const (
	defaultCommandTimeout = 60 * time.Second
	maxCommandOutputLen   = 30000
	paramEnvPrefix        = "TOOL_PARAM_"
)

// Definition is the resolved manifest content a CommandTool is built from.
type Definition struct {
	Name        string
	Description string
	Command     string
	Timeout     time.Duration
	Workdir     string
	Params      *tool.Schema
}

// CommandTool runs a shell command declared in a manifest. Validated
// parameters are handed to the command as TOOL_PARAM_<NAME> environment
// variables so the command never sees unvalidated input on its argv.
type CommandTool struct {
	def Definition
}

// NewCommandTool builds a CommandTool from a resolved definition.
func NewCommandTool(def Definition) *CommandTool {
	if def.Timeout <= 0 {
		def.Timeout = defaultCommandTimeout
	}
	return &CommandTool{def: def}
}

func (c *CommandTool) Name() string        { return c.def.Name }
func (c *CommandTool) Description() string { return c.def.Description }
func (c *CommandTool) Schema() *tool.Schema { return c.def.Params }

// Command exposes the backing command line, primarily for describe output.
func (c *CommandTool) Command() string { return c.def.Command }

func (c *CommandTool) Execute(ctx context.Context, params map[string]any) (*tool.Result, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}

	execCtx, cancel := context.WithTimeout(ctx, c.def.Timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "bash", "-c", c.def.Command)
	cmd.Env = append(os.Environ(), paramEnv(params)...)
	if c.def.Workdir != "" {
		cmd.Dir = c.def.Workdir
	}

	start := time.Now()
	out, runErr := cmd.CombinedOutput()
	duration := time.Since(start)

	output := string(out)
	truncated := false
	if len(output) > maxCommandOutputLen {
		output = output[:maxCommandOutputLen]
		truncated = true
	}

	data := map[string]any{
		"duration_ms": duration.Milliseconds(),
		"timeout_ms":  c.def.Timeout.Milliseconds(),
	}
	if truncated {
		data["truncated"] = true
	}

	result := &tool.Result{
		Success: runErr == nil,
		Output:  output,
		Data:    data,
	}

	if runErr != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("command timeout after %s", c.def.Timeout)
		}
		return result, fmt.Errorf("command failed: %w", runErr)
	}
	return result, nil
}

// Check verifies the backing command's executable can be resolved without
// running it. Used by the audit harness as a side-effect-free probe.
func (c *CommandTool) Check(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	fields := strings.Fields(c.def.Command)
	if len(fields) == 0 {
		return errors.New("empty command")
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return fmt.Errorf("command %q not resolvable: %w", fields[0], err)
	}
	return nil
}

func paramEnv(params map[string]any) []string {
	if len(params) == 0 {
		return nil
	}
	env := make([]string, 0, len(params))
	for name, value := range params {
		key := paramEnvPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		env = append(env, key+"="+stringify(value))
	}
	return env
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
