package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/stellarlinkco/toolvet/internal/tool"
)

var calcSchema = &tool.Schema{
	Properties: map[string]*tool.Property{
		"a":  {Type: "number", Description: "Left operand"},
		"b":  {Type: "number", Description: "Right operand"},
		"op": {Type: "string", Description: "Operator", Enum: []string{"add", "sub", "mul", "div"}},
	},
	Required: []string{"a", "b", "op"},
}

// CalcTool evaluates one binary arithmetic operation.
type CalcTool struct{}

func NewCalcTool() *CalcTool { return &CalcTool{} }

func (c *CalcTool) Name() string         { return "calc" }
func (c *CalcTool) Description() string  { return "Evaluate a binary arithmetic operation on two numbers" }
func (c *CalcTool) Schema() *tool.Schema { return calcSchema }

func (c *CalcTool) Execute(ctx context.Context, params map[string]any) (*tool.Result, error) {
	a, okA := params["a"].(float64)
	b, okB := params["b"].(float64)
	op, okOp := params["op"].(string)
	if !okA || !okB || !okOp {
		return nil, errors.New("calc: params not conformed")
	}

	var value float64
	switch op {
	case "add":
		value = a + b
	case "sub":
		value = a - b
	case "mul":
		value = a * b
	case "div":
		if b == 0 {
			return nil, errors.New("division by zero")
		}
		value = a / b
	default:
		return nil, fmt.Errorf("unsupported operator %q", op)
	}

	out := strconv.FormatFloat(value, 'f', -1, 64)
	return &tool.Result{Success: true, Output: out, Data: value}, nil
}
