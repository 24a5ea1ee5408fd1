package tool

import "fmt"

// Schema declares the parameters a tool accepts. It is always an object
// keyed by parameter name; nesting is supported for object and array
// parameters via Property.
type Schema struct {
	Properties map[string]*Property `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required   []string             `json:"required,omitempty" yaml:"required,omitempty"`
}

// Property describes a single parameter.
type Property struct {
	Type        string    `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty" yaml:"enum,omitempty"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty"`
	Items       *Property `json:"items,omitempty" yaml:"items,omitempty"`
}

// validTypes lists the primitive types a Property may declare.
var validTypes = map[string]bool{
	"string":  true,
	"integer": true,
	"number":  true,
	"boolean": true,
	"array":   true,
	"object":  true,
}

// Check verifies the schema itself is well formed: every property has a
// known type and every required name is declared.
func (s *Schema) Check() error {
	if s == nil {
		return nil
	}
	for name, prop := range s.Properties {
		if prop == nil {
			return fmt.Errorf("parameter %s: missing definition", name)
		}
		if !validTypes[prop.Type] {
			return fmt.Errorf("parameter %s: unsupported type %q", name, prop.Type)
		}
		if prop.Type == "array" && prop.Items != nil && !validTypes[prop.Items.Type] {
			return fmt.Errorf("parameter %s: unsupported item type %q", name, prop.Items.Type)
		}
	}
	for _, name := range s.Required {
		if _, ok := s.Properties[name]; !ok {
			return fmt.Errorf("required parameter %s is not declared", name)
		}
	}
	return nil
}
