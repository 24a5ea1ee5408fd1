package tool

import (
	"context"
	"errors"
	"testing"
)

func echoSchema() *Schema {
	return &Schema{
		Properties: map[string]*Property{
			"text": {Type: "string", Description: "Text to echo back"},
		},
		Required: []string{"text"},
	}
}

func TestInvokeEchoRoundTrip(t *testing.T) {
	r := NewRegistry()
	echo := &spyTool{name: "echo", schema: echoSchema(), result: Ok("hi")}
	if err := r.Register(echo); err != nil {
		t.Fatalf("register: %v", err)
	}
	inv := NewInvoker(r).Invoke(context.Background(), "echo", map[string]any{"text": "hi"})
	if !inv.OK {
		t.Fatalf("invocation failed: %+v", inv.Failure)
	}
	if inv.Value.Output != "hi" {
		t.Fatalf("output = %q, want %q", inv.Value.Output, "hi")
	}
	if echo.calls != 1 {
		t.Fatalf("execute calls = %d", echo.calls)
	}
	if inv.Duration() < 0 {
		t.Fatal("negative duration")
	}
}

func TestInvokeFailures(t *testing.T) {
	tests := []struct {
		name      string
		tool      *spyTool
		invoke    string
		args      map[string]any
		wantKind  FailureKind
		wantCalls int
	}{
		{
			name:     "missing tool",
			tool:     &spyTool{name: "echo", schema: echoSchema()},
			invoke:   "missing_tool",
			args:     map[string]any{},
			wantKind: KindNotFound,
		},
		{
			name:     "missing required parameter",
			tool:     &spyTool{name: "echo", schema: echoSchema()},
			invoke:   "echo",
			args:     map[string]any{},
			wantKind: KindMissingParameter,
		},
		{
			name:     "unknown parameter in strict mode",
			tool:     &spyTool{name: "echo", schema: echoSchema()},
			invoke:   "echo",
			args:     map[string]any{"text": "hi", "verbose": true},
			wantKind: KindUnknownParameter,
		},
		{
			name:     "type mismatch",
			tool:     &spyTool{name: "echo", schema: echoSchema()},
			invoke:   "echo",
			args:     map[string]any{"text": []any{}},
			wantKind: KindTypeMismatch,
		},
		{
			name:      "execute error wrapped",
			tool:      &spyTool{name: "echo", schema: echoSchema(), err: errors.New("backend down")},
			invoke:    "echo",
			args:      map[string]any{"text": "hi"},
			wantKind:  KindExecution,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if err := r.Register(tt.tool); err != nil {
				t.Fatalf("register: %v", err)
			}
			inv := NewInvoker(r).Invoke(context.Background(), tt.invoke, tt.args)
			if inv.OK {
				t.Fatal("expected failure")
			}
			if inv.Failure == nil || inv.Failure.Kind != tt.wantKind {
				t.Fatalf("failure = %+v, want kind %s", inv.Failure, tt.wantKind)
			}
			if tt.tool.calls != tt.wantCalls {
				t.Fatalf("execute calls = %d, want %d", tt.tool.calls, tt.wantCalls)
			}
		})
	}
}

func TestInvokePanicContained(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&spyTool{name: "boom", schema: nil, panicMsg: "kaboom"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	inv := NewInvoker(r).Invoke(context.Background(), "boom", nil)
	if inv.OK {
		t.Fatal("expected failure from panicking tool")
	}
	if inv.Failure.Kind != KindExecution {
		t.Fatalf("kind = %s, want %s", inv.Failure.Kind, KindExecution)
	}
	// Reaching this line proves the panic did not escape the invoker.
}

func TestInvokeLenientMode(t *testing.T) {
	r := NewRegistry()
	echo := &spyTool{name: "echo", schema: echoSchema(), result: Ok("ok")}
	if err := r.Register(echo); err != nil {
		t.Fatalf("register: %v", err)
	}

	inv := NewInvoker(r)
	inv.SetLenient(true)
	got := inv.Invoke(context.Background(), "echo", map[string]any{"text": "hi", "extra": 1})
	if !got.OK {
		t.Fatalf("lenient invoke failed: %+v", got.Failure)
	}
	if _, leaked := echo.lastParams["extra"]; leaked {
		t.Fatal("undeclared parameter forwarded to tool")
	}
}

func TestInvokeCoercedParamsReachTool(t *testing.T) {
	r := NewRegistry()
	calc := &spyTool{
		name: "sum",
		schema: &Schema{
			Properties: map[string]*Property{
				"a": {Type: "integer"},
				"b": {Type: "integer"},
			},
			Required: []string{"a", "b"},
		},
		result: Ok("3"),
	}
	if err := r.Register(calc); err != nil {
		t.Fatalf("register: %v", err)
	}

	inv := NewInvoker(r).Invoke(context.Background(), "sum", map[string]any{"a": "1", "b": 2.0})
	if !inv.OK {
		t.Fatalf("invoke failed: %+v", inv.Failure)
	}
	if calc.lastParams["a"] != int64(1) || calc.lastParams["b"] != int64(2) {
		t.Fatalf("coerced params = %v", calc.lastParams)
	}
}

func TestInvokeNilResultNormalized(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&spyTool{name: "noop"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inv := NewInvoker(r).Invoke(context.Background(), "noop", nil)
	if !inv.OK || inv.Value == nil {
		t.Fatalf("expected normalized success, got %+v", inv)
	}
}
