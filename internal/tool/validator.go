package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Conform validates params against the schema and returns a new map with
// values coerced to their declared types and defaults filled in. The input
// map is never mutated. In strict mode (lenient == false) parameters the
// schema does not declare are rejected; in lenient mode they are dropped.
//
// Validation order: unknown keys, required keys, then per-value coercion
// and enum membership. The first violation wins, so callers see one error
// at a time the way the source tools reported them.
func Conform(params map[string]any, schema *Schema, lenient bool) (map[string]any, error) {
	if schema == nil {
		if len(params) == 0 || lenient {
			return map[string]any{}, nil
		}
		for key := range params {
			return nil, &UnknownParameterError{Param: key}
		}
	}

	if !lenient {
		for key := range params {
			if _, ok := schema.Properties[key]; !ok {
				return nil, &UnknownParameterError{Param: key}
			}
		}
	}

	for _, name := range schema.Required {
		if _, ok := params[name]; !ok {
			return nil, &MissingParameterError{Param: name}
		}
	}

	out := make(map[string]any, len(schema.Properties))
	for name, prop := range schema.Properties {
		raw, supplied := params[name]
		if !supplied {
			if prop.Default != nil {
				out[name] = prop.Default
			}
			continue
		}
		value, err := coerce(name, raw, prop)
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

func coerce(name string, raw any, prop *Property) (any, error) {
	value, ok := coerceType(raw, prop.Type, prop.Items)
	if !ok {
		return nil, &TypeMismatchError{Param: name, Want: prop.Type, Got: raw}
	}
	if len(prop.Enum) > 0 {
		if !inEnum(value, prop.Enum) {
			return nil, &TypeMismatchError{Param: name, Want: fmt.Sprintf("one of %v", prop.Enum), Got: raw}
		}
	}
	return value, nil
}

// coerceType attempts a best-effort conversion of raw to the declared
// primitive type. It returns the converted value and whether the
// conversion succeeded.
func coerceType(raw any, want string, items *Property) (any, bool) {
	switch want {
	case "string":
		switch v := raw.(type) {
		case string:
			return v, true
		case json.Number:
			return v.String(), true
		case bool:
			return strconv.FormatBool(v), true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case int:
			return strconv.Itoa(v), true
		case int64:
			return strconv.FormatInt(v, 10), true
		}
	case "integer":
		switch v := raw.(type) {
		case int:
			return int64(v), true
		case int32:
			return int64(v), true
		case int64:
			return v, true
		case float64:
			if math.Trunc(v) == v {
				return int64(v), true
			}
		case float32:
			if math.Trunc(float64(v)) == float64(v) {
				return int64(v), true
			}
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n, true
			}
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, true
			}
		}
	case "number":
		switch v := raw.(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, true
			}
		}
	case "boolean":
		switch v := raw.(type) {
		case bool:
			return v, true
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, true
			}
		}
	case "array":
		arr, ok := raw.([]any)
		if !ok {
			return nil, false
		}
		if items == nil {
			return arr, true
		}
		out := make([]any, len(arr))
		for i, item := range arr {
			converted, ok := coerceType(item, items.Type, items.Items)
			if !ok {
				return nil, false
			}
			out[i] = converted
		}
		return out, true
	case "object":
		if obj, ok := raw.(map[string]any); ok {
			return obj, true
		}
	}
	return nil, false
}

func inEnum(value any, enum []string) bool {
	str, ok := value.(string)
	if !ok {
		str = fmt.Sprintf("%v", value)
	}
	for _, candidate := range enum {
		if str == candidate {
			return true
		}
	}
	return false
}
