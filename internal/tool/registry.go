package tool

import (
	"fmt"
	"iter"
	"sync"
)

// Registry keeps the authoritative mapping between tool names and
// implementations. Lookup order is guarded, but execution is not: a tool
// invoked concurrently must synchronize its own state.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register inserts a tool when its name is not in use. On a duplicate
// name the first registration is retained.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool is nil")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if err := t.Schema().Check(); err != nil {
		return fmt.Errorf("tool %s: invalid schema: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// Get fetches a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// Unregister removes a tool. Removing a name that is not registered
// (including a second remove of the same name) fails with ErrNotFound.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// All returns a lazy sequence of (name, description) pairs in registration
// order. The sequence is restartable: each range takes a fresh snapshot of
// the registry, so mutations between iterations are observed.
func (r *Registry) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		r.mu.RLock()
		names := make([]string, len(r.order))
		copy(names, r.order)
		descriptions := make([]string, len(names))
		for i, name := range names {
			descriptions[i] = r.tools[name].Description()
		}
		r.mu.RUnlock()

		for i, name := range names {
			if !yield(name, descriptions[i]) {
				return
			}
		}
	}
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
