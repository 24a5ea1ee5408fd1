package manifest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandToolExecute(t *testing.T) {
	ct := NewCommandTool(Definition{
		Name:    "greet",
		Command: `echo "hello $TOOL_PARAM_WHO"`,
	})

	res, err := ct.Execute(context.Background(), map[string]any{"who": "world"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "hello world\n", res.Output)
}

func TestCommandToolExecuteFailure(t *testing.T) {
	ct := NewCommandTool(Definition{Name: "fail", Command: "exit 3"})

	res, err := ct.Execute(context.Background(), nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Success)
}

func TestCommandToolExecuteTimeout(t *testing.T) {
	ct := NewCommandTool(Definition{
		Name:    "hang",
		Command: "sleep 30",
		Timeout: 100 * time.Millisecond,
	})

	start := time.Now()
	_, err := ct.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCommandToolExecuteWorkdir(t *testing.T) {
	dir := t.TempDir()
	ct := NewCommandTool(Definition{Name: "pwd", Command: "pwd", Workdir: dir})

	res, err := ct.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, res.Output, dir)
}

func TestCommandToolCheck(t *testing.T) {
	ok := NewCommandTool(Definition{Name: "ok", Command: "echo hi"})
	require.NoError(t, ok.Check(context.Background()))

	missing := NewCommandTool(Definition{Name: "bad", Command: "definitely-not-a-binary-42 --flag"})
	err := missing.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not resolvable")
}

func TestParamEnvEscaping(t *testing.T) {
	env := paramEnv(map[string]any{
		"dash-name": "v",
		"count":     int64(3),
		"ratio":     1.5,
		"flag":      true,
	})
	assert.Len(t, env, 4)
	assert.Contains(t, env, "TOOL_PARAM_DASH_NAME=v")
	assert.Contains(t, env, "TOOL_PARAM_COUNT=3")
	assert.Contains(t, env, "TOOL_PARAM_RATIO=1.5")
	assert.Contains(t, env, "TOOL_PARAM_FLAG=true")
}
