package tool

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// FailureKind classifies why an invocation did not produce a result.
type FailureKind string

const (
	KindNotFound         FailureKind = "not_found"
	KindMissingParameter FailureKind = "missing_parameter"
	KindUnknownParameter FailureKind = "unknown_parameter"
	KindTypeMismatch     FailureKind = "type_mismatch"
	KindExecution        FailureKind = "execution_error"
)

// Failure is the structured error half of an Invocation.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Invocation is the uniform envelope every Invoke call returns. Exactly one
// of Value and Failure is set.
type Invocation struct {
	Tool        string    `json:"tool"`
	OK          bool      `json:"ok"`
	Value       *Result   `json:"value,omitempty"`
	Failure     *Failure  `json:"failure,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Duration reports how long the invocation took. Zero when the call failed
// before dispatch.
func (inv Invocation) Duration() time.Duration {
	if inv.StartedAt.IsZero() || inv.CompletedAt.IsZero() {
		return 0
	}
	return inv.CompletedAt.Sub(inv.StartedAt)
}

// Invoker validates caller arguments against a tool's schema and dispatches
// to Execute, normalizing every outcome into an Invocation. It holds no
// per-call state. Strict mode (the default) rejects undeclared parameters;
// lenient mode drops them instead.
type Invoker struct {
	registry *Registry
	lenient  bool
}

// NewInvoker constructs an invoker over the given registry. A nil registry
// is replaced with an empty one so every lookup fails cleanly.
func NewInvoker(registry *Registry) *Invoker {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Invoker{registry: registry}
}

// SetLenient switches unknown-parameter handling to drop instead of reject.
func (i *Invoker) SetLenient(lenient bool) { i.lenient = lenient }

// Registry exposes the underlying registry primarily for tests.
func (i *Invoker) Registry() *Registry { return i.registry }

// Invoke looks up the named tool, conforms args to its schema and runs it.
// Validation failures return before any tool code executes. Errors and
// panics raised inside Execute are caught at this boundary; the caller
// always receives a well-formed Invocation and never a raw panic.
func (i *Invoker) Invoke(ctx context.Context, name string, args map[string]any) Invocation {
	inv := Invocation{Tool: name}

	t, err := i.registry.Get(name)
	if err != nil {
		inv.Failure = &Failure{Kind: KindNotFound, Message: err.Error()}
		return inv
	}

	params, err := Conform(args, t.Schema(), i.lenient)
	if err != nil {
		inv.Failure = &Failure{Kind: classify(err), Message: err.Error()}
		return inv
	}

	inv.StartedAt = time.Now()
	result, execErr := dispatch(ctx, t, params)
	inv.CompletedAt = time.Now()

	if execErr != nil {
		inv.Failure = &Failure{Kind: KindExecution, Message: execErr.Error()}
		return inv
	}
	if result == nil {
		result = &Result{Success: true}
	}
	inv.OK = true
	inv.Value = result
	return inv
}

// dispatch calls Execute with panic containment. A tool that panics is
// reported the same way as one that returns an error.
func dispatch(ctx context.Context, t Tool, params map[string]any) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("tool %s panicked: %v", t.Name(), r)
		}
	}()
	return t.Execute(ctx, params)
}

func classify(err error) FailureKind {
	var missing *MissingParameterError
	var unknown *UnknownParameterError
	var mismatch *TypeMismatchError
	switch {
	case errors.As(err, &missing):
		return KindMissingParameter
	case errors.As(err, &unknown):
		return KindUnknownParameter
	case errors.As(err, &mismatch):
		return KindTypeMismatch
	default:
		return KindExecution
	}
}
