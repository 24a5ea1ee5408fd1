package catalog

import (
	"context"

	"github.com/stellarlinkco/toolvet/internal/tool"
)

var echoSchema = &tool.Schema{
	Properties: map[string]*tool.Property{
		"text": {
			Type:        "string",
			Description: "Text returned unchanged",
		},
	},
	Required: []string{"text"},
}

// EchoTool returns its input unchanged. It doubles as the smallest possible
// reference implementation of the tool contract.
type EchoTool struct{}

func NewEchoTool() *EchoTool { return &EchoTool{} }

func (e *EchoTool) Name() string         { return "echo" }
func (e *EchoTool) Description() string  { return "Echo the given text back unchanged" }
func (e *EchoTool) Schema() *tool.Schema { return echoSchema }

func (e *EchoTool) Execute(ctx context.Context, params map[string]any) (*tool.Result, error) {
	text, _ := params["text"].(string)
	return tool.Ok(text), nil
}
