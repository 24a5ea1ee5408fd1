package catalog

import (
	"context"
	"strconv"
	"time"

	"github.com/stellarlinkco/toolvet/internal/tool"
)

var timeSchema = &tool.Schema{
	Properties: map[string]*tool.Property{
		"format": {
			Type:        "string",
			Description: "Output format for the current time",
			Enum:        []string{"rfc3339", "unix", "kitchen"},
			Default:     "rfc3339",
		},
	},
}

// TimeTool reports the current time. The clock is injected so tests get a
// deterministic instant.
type TimeTool struct {
	now func() time.Time
}

func NewTimeTool(now func() time.Time) *TimeTool {
	if now == nil {
		now = time.Now
	}
	return &TimeTool{now: now}
}

func (t *TimeTool) Name() string         { return "time" }
func (t *TimeTool) Description() string  { return "Report the current time in the requested format" }
func (t *TimeTool) Schema() *tool.Schema { return timeSchema }

func (t *TimeTool) Execute(ctx context.Context, params map[string]any) (*tool.Result, error) {
	format, _ := params["format"].(string)
	now := t.now()

	var out string
	switch format {
	case "unix":
		out = strconv.FormatInt(now.Unix(), 10)
	case "kitchen":
		out = now.Format(time.Kitchen)
	default:
		out = now.Format(time.RFC3339)
	}
	return tool.Ok(out), nil
}
