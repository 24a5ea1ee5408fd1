package tool

import "context"

// Tool is a self-contained capability exposed to the invoker by name.
type Tool interface {
	// Name returns the unique identifier of the tool.
	Name() string

	// Description gives a short human readable summary.
	Description() string

	// Schema describes the tool parameters. Nil means the tool takes no input.
	Schema() *Schema

	// Execute runs the tool with validated, coerced parameters.
	Execute(ctx context.Context, params map[string]any) (*Result, error)
}

// Checker is implemented by tools that support a cheap health probe. The
// audit harness prefers Check over a full Execute because checks must not
// have side effects.
type Checker interface {
	Check(ctx context.Context) error
}

// Descriptor carries the static metadata of one tool.
type Descriptor struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Params      *Schema `json:"params,omitempty" yaml:"params,omitempty"`
}
