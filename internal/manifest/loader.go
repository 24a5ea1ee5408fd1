// Package manifest loads declarative command-backed tools from a directory.
// Each tool lives in its own subdirectory as a TOOL.md file with YAML
// frontmatter (name, command, params) followed by a Markdown body that
// becomes the long description.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/stellarlinkco/toolvet/internal/tool"
	"gopkg.in/yaml.v3"
)

const manifestFileName = "TOOL.md"

var errInvalidManifestYAML = errors.New("invalid tool YAML frontmatter")

type frontmatter struct {
	Name           string      `yaml:"name"`
	Description    string      `yaml:"description"`
	Command        string      `yaml:"command"`
	TimeoutSeconds int         `yaml:"timeoutSeconds"`
	Params         []paramSpec `yaml:"params"`
}

type paramSpec struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	Required    bool     `yaml:"required"`
	Default     any      `yaml:"default"`
	Enum        []string `yaml:"enum"`
}

// Load walks toolsDir and builds one CommandTool per valid manifest.
// Directories without a TOOL.md are skipped; a manifest with broken YAML is
// skipped with a warning so one bad file cannot hide the rest of the
// catalog; duplicate names across manifests are an error.
func Load(toolsDir, workspace string) ([]*CommandTool, error) {
	toolsDir = strings.TrimSpace(toolsDir)
	if toolsDir == "" {
		return nil, nil
	}

	info, err := os.Stat(toolsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat tools dir %q: %w", toolsDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tools path is not a directory: %s", toolsDir)
	}

	entries, err := os.ReadDir(toolsDir)
	if err != nil {
		return nil, fmt.Errorf("read tools dir %q: %w", toolsDir, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	tools := make([]*CommandTool, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(toolsDir, entry.Name(), manifestFileName)
		ct, skip, parseErr := parseManifest(path, workspace)
		if parseErr != nil {
			return nil, parseErr
		}
		if skip {
			continue
		}

		if prevPath, exists := seen[ct.Name()]; exists {
			return nil, fmt.Errorf("duplicate tool name %q in %s (already in %s)", ct.Name(), path, prevPath)
		}
		seen[ct.Name()] = path
		tools = append(tools, ct)
	}

	return tools, nil
}

func parseManifest(path, workspace string) (*CommandTool, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("read manifest %q: %w", path, err)
	}

	meta, body, err := parseFrontmatter(content)
	if err != nil {
		if errors.Is(err, errInvalidManifestYAML) {
			log.Printf("[manifest] warning: skip invalid YAML manifest %s: %v", path, err)
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("parse manifest %q: %w", path, err)
	}
	if strings.TrimSpace(meta.Name) == "" {
		return nil, false, fmt.Errorf("parse manifest %q: missing name", path)
	}
	if strings.TrimSpace(meta.Command) == "" {
		return nil, false, fmt.Errorf("parse manifest %q: missing command", path)
	}

	schema, err := buildSchema(meta.Params)
	if err != nil {
		return nil, false, fmt.Errorf("parse manifest %q: %w", path, err)
	}

	description := strings.TrimSpace(meta.Description)
	if body = strings.TrimSpace(body); body != "" {
		if description == "" {
			description = body
		} else {
			description = description + "\n\n" + body
		}
	}

	timeout := time.Duration(meta.TimeoutSeconds) * time.Second

	return NewCommandTool(Definition{
		Name:        strings.TrimSpace(meta.Name),
		Description: description,
		Command:     strings.TrimSpace(meta.Command),
		Timeout:     timeout,
		Workdir:     workspace,
		Params:      schema,
	}), false, nil
}

func buildSchema(params []paramSpec) (*tool.Schema, error) {
	if len(params) == 0 {
		return nil, nil
	}
	schema := &tool.Schema{Properties: make(map[string]*tool.Property, len(params))}
	for _, p := range params {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, errors.New("param with empty name")
		}
		if _, exists := schema.Properties[name]; exists {
			return nil, fmt.Errorf("duplicate param name %q", name)
		}
		typ := strings.TrimSpace(p.Type)
		if typ == "" {
			typ = "string"
		}
		schema.Properties[name] = &tool.Property{
			Type:        typ,
			Description: strings.TrimSpace(p.Description),
			Default:     p.Default,
			Enum:        p.Enum,
		}
		if p.Required {
			schema.Required = append(schema.Required, name)
		}
	}
	if err := schema.Check(); err != nil {
		return nil, err
	}
	return schema, nil
}

func parseFrontmatter(content []byte) (frontmatter, string, error) {
	text := strings.TrimPrefix(string(content), "\ufeff")
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return frontmatter{}, "", errors.New("missing YAML frontmatter")
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return frontmatter{}, "", errors.New("missing closing frontmatter separator")
	}

	head := strings.Join(lines[1:end], "\n")
	body := strings.Join(lines[end+1:], "\n")

	var meta frontmatter
	if err := yaml.Unmarshal([]byte(head), &meta); err != nil {
		return frontmatter{}, "", fmt.Errorf("%w: %v", errInvalidManifestYAML, err)
	}

	return meta, body, nil
}
