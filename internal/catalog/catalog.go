// Package catalog assembles the tool registry. Every tool — builtin or
// manifest-backed — enters the registry through the same construction
// contract: a Builder that takes the shared dependencies and returns a
// ready Tool. There is no reflective discovery; the builder list is the
// single authoritative enumeration of builtin capabilities.
package catalog

import (
	"log"
	"net/http"
	"time"

	"github.com/stellarlinkco/toolvet/internal/config"
	"github.com/stellarlinkco/toolvet/internal/manifest"
	"github.com/stellarlinkco/toolvet/internal/tool"
)

// Deps carries everything a builder may need. Tools own any further state
// themselves; nothing is shared between tool instances.
type Deps struct {
	Cfg        *config.Config
	Workspace  string
	HTTPClient *http.Client
	Now        func() time.Time
}

// Builder constructs one tool from the shared dependencies.
type Builder struct {
	Name  string
	Build func(Deps) (tool.Tool, error)
}

// Builders returns the static list of builtin tool constructors.
func Builders() []Builder {
	return []Builder{
		{Name: "echo", Build: func(d Deps) (tool.Tool, error) { return NewEchoTool(), nil }},
		{Name: "time", Build: func(d Deps) (tool.Tool, error) { return NewTimeTool(d.Now), nil }},
		{Name: "calc", Build: func(d Deps) (tool.Tool, error) { return NewCalcTool(), nil }},
		{Name: "read_file", Build: func(d Deps) (tool.Tool, error) {
			restrict := d.Cfg == nil || d.Cfg.Tools.RestrictToWorkspace
			return NewReadFileTool(d.Workspace, restrict), nil
		}},
		{Name: "exec", Build: func(d Deps) (tool.Tool, error) {
			timeout := time.Duration(config.DefaultExecTimeout) * time.Second
			if d.Cfg != nil && d.Cfg.Tools.ExecTimeout > 0 {
				timeout = time.Duration(d.Cfg.Tools.ExecTimeout) * time.Second
			}
			return NewExecTool(d.Workspace, timeout), nil
		}},
		{Name: "fetch", Build: func(d Deps) (tool.Tool, error) {
			opts := FetchOptions{HTTPClient: d.HTTPClient}
			if d.Cfg != nil {
				opts.Timeout = time.Duration(d.Cfg.Fetch.TimeoutSeconds) * time.Second
				opts.MaxBytes = d.Cfg.Fetch.MaxBytes
			}
			return NewFetchTool(opts), nil
		}},
	}
}

// BuildRegistry populates a fresh registry from the builtin builders plus
// the manifests under the configured tools directory. A single failing
// builder or manifest is logged and skipped so the rest of the catalog
// stays usable; only a completely unreadable tools dir is fatal.
func BuildRegistry(deps Deps) (*tool.Registry, error) {
	registry := tool.NewRegistry()

	for _, b := range Builders() {
		t, err := b.Build(deps)
		if err != nil {
			log.Printf("[catalog] skip builtin %s: %v", b.Name, err)
			continue
		}
		if err := registry.Register(t); err != nil {
			log.Printf("[catalog] skip builtin %s: %v", b.Name, err)
		}
	}

	toolsDir := ""
	if deps.Cfg != nil {
		toolsDir = deps.Cfg.ToolsDir
	}
	manifests, err := manifest.Load(toolsDir, deps.Workspace)
	if err != nil {
		return nil, err
	}
	for _, ct := range manifests {
		if err := registry.Register(ct); err != nil {
			log.Printf("[catalog] skip manifest tool %s: %v", ct.Name(), err)
		}
	}

	return registry, nil
}
