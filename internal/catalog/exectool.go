package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/stellarlinkco/toolvet/internal/tool"
)

const maxExecOutputLen = 30000

var execSchema = &tool.Schema{
	Properties: map[string]*tool.Property{
		"command": {
			Type:        "string",
			Description: "Command string executed via bash -c",
		},
		"timeout": {
			Type:        "integer",
			Description: "Optional timeout in seconds, capped at the configured default",
		},
	},
	Required: []string{"command"},
}

// ExecTool runs a shell command rooted at the workspace with a bounded
// timeout. The invoker imposes no per-call deadline, so the bound lives
// here.
type ExecTool struct {
	root    string
	timeout time.Duration
}

func NewExecTool(root string, timeout time.Duration) *ExecTool {
	if root == "" {
		root, _ = os.Getwd()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ExecTool{root: root, timeout: timeout}
}

func (e *ExecTool) Name() string         { return "exec" }
func (e *ExecTool) Description() string  { return "Run a shell command in the workspace" }
func (e *ExecTool) Schema() *tool.Schema { return execSchema }

func (e *ExecTool) Execute(ctx context.Context, params map[string]any) (*tool.Result, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	command, _ := params["command"].(string)
	if strings.TrimSpace(command) == "" {
		return nil, errors.New("command is empty")
	}

	timeout := e.timeout
	if requested := intParam(params, "timeout", 0); requested > 0 {
		if d := time.Duration(requested) * time.Second; d < timeout {
			timeout = d
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "bash", "-c", command)
	cmd.Env = os.Environ()
	cmd.Dir = e.root

	start := time.Now()
	out, runErr := cmd.CombinedOutput()
	duration := time.Since(start)

	output := string(out)
	if len(output) > maxExecOutputLen {
		output = output[:maxExecOutputLen]
	}

	result := &tool.Result{
		Success: runErr == nil,
		Output:  output,
		Data: map[string]any{
			"workdir":     e.root,
			"duration_ms": duration.Milliseconds(),
		},
	}

	if runErr != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("command timeout after %s", timeout)
		}
		return result, fmt.Errorf("command failed: %w", runErr)
	}
	return result, nil
}
