package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stellarlinkco/toolvet/internal/tool"
)

const (
	readDefaultLineLimit = 2000
	readMaxLineLength    = 2000
)

var readFileSchema = &tool.Schema{
	Properties: map[string]*tool.Property{
		"path": {
			Type:        "string",
			Description: "File path, absolute or relative to the workspace",
		},
		"offset": {
			Type:        "integer",
			Description: "1-based line number to start reading from",
		},
		"limit": {
			Type:        "integer",
			Description: "Maximum number of lines to read",
		},
	},
	Required: []string{"path"},
}

// ReadFileTool reads text files in cat -n format. When restricted it
// refuses paths that resolve outside the workspace root.
type ReadFileTool struct {
	root     string
	restrict bool
}

func NewReadFileTool(root string, restrict bool) *ReadFileTool {
	if root == "" {
		root, _ = os.Getwd()
	}
	return &ReadFileTool{root: filepath.Clean(root), restrict: restrict}
}

func (r *ReadFileTool) Name() string { return "read_file" }

func (r *ReadFileTool) Description() string {
	return "Read a text file from the workspace, numbered like cat -n"
}

func (r *ReadFileTool) Schema() *tool.Schema { return readFileSchema }

func (r *ReadFileTool) Execute(ctx context.Context, params map[string]any) (*tool.Result, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}
	raw, _ := params["path"].(string)
	path := strings.TrimSpace(raw)
	if path == "" {
		return nil, errors.New("path is empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, path)
	}
	path = filepath.Clean(path)

	if r.restrict && !strings.HasPrefix(path+string(filepath.Separator), r.root+string(filepath.Separator)) {
		return nil, fmt.Errorf("path %s escapes the workspace", path)
	}

	offset := intParam(params, "offset", 1)
	if offset < 1 {
		offset = 1
	}
	limit := intParam(params, "limit", readDefaultLineLimit)
	if limit < 1 {
		limit = readDefaultLineLimit
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	emitted := 0
	for scanner.Scan() {
		lineNo++
		if lineNo < offset {
			continue
		}
		if emitted == limit {
			break
		}
		line := scanner.Text()
		if len(line) > readMaxLineLength {
			line = line[:readMaxLineLength]
		}
		fmt.Fprintf(&sb, "%6d\t%s\n", lineNo, line)
		emitted++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return &tool.Result{
		Success: true,
		Output:  sb.String(),
		Data:    map[string]any{"path": path, "lines": emitted},
	}, nil
}

func intParam(params map[string]any, name string, fallback int) int {
	switch v := params[name].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}
