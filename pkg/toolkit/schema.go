// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package toolkit

import (
	"fmt"
	"math"
	"net/url"
	"sort"
)

// Schema is the structural input schema of a tool. It marshals to the
// JSON Schema subset MCP clients expect in tools/list.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one named argument.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Format      string   `json:"format,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// Object builds an object schema.
func Object(props map[string]Property, required ...string) Schema {
	if props == nil {
		props = map[string]Property{}
	}
	return Schema{Type: "object", Properties: props, Required: required}
}

// String returns a string property.
func String(description string) Property {
	return Property{Type: "string", Description: description}
}

// Number returns a floating point property.
func Number(description string) Property {
	return Property{Type: "number", Description: description}
}

// URL returns a string property that must hold an absolute http(s) URL.
func URL(description string) Property {
	return Property{Type: "string", Format: "uri", Description: description}
}

// Integer returns an integer property.
func Integer(description string) Property {
	return Property{Type: "integer", Description: description}
}

// Between sets inclusive numeric bounds.
func (p Property) Between(lo, hi float64) Property {
	p.Minimum = &lo
	p.Maximum = &hi
	return p
}

// WithDefault sets the value applied when the argument is absent.
func (p Property) WithDefault(v any) Property {
	p.Default = v
	return p
}

// ArgumentError reports an argument that does not satisfy the schema.
type ArgumentError struct {
	Property string
	Reason   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Property, e.Reason)
}

// Validate checks args against the schema and returns a copy with defaults
// applied. Properties not declared in the schema pass through untouched.
func (s Schema) Validate(args map[string]any) (Arguments, error) {
	out := make(Arguments, len(args)+len(s.Properties))
	for k, v := range args {
		out[k] = v
	}

	for _, name := range s.Required {
		if v, ok := out[name]; !ok || v == nil {
			return nil, &ArgumentError{Property: name, Reason: "is required"}
		}
	}

	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := s.Properties[name]
		v, ok := out[name]
		if !ok || v == nil {
			if prop.Default != nil {
				out[name] = prop.Default
			}
			continue
		}
		if err := prop.check(v); err != nil {
			err.Property = name
			return nil, err
		}
	}
	return out, nil
}

func (p Property) check(v any) *ArgumentError {
	switch p.Type {
	case "string":
		s, ok := v.(string)
		if !ok {
			return &ArgumentError{Reason: "must be a string"}
		}
		if p.Format == "uri" && !isWebURL(s) {
			return &ArgumentError{Reason: "must be an absolute http or https URL"}
		}
	case "number", "integer":
		f, ok := toFloat(v)
		if !ok {
			return &ArgumentError{Reason: "must be a " + p.Type}
		}
		if p.Type == "integer" && f != math.Trunc(f) {
			return &ArgumentError{Reason: "must be an integer"}
		}
		if p.Minimum != nil && f < *p.Minimum {
			return &ArgumentError{Reason: fmt.Sprintf("must be >= %v", *p.Minimum)}
		}
		if p.Maximum != nil && f > *p.Maximum {
			return &ArgumentError{Reason: fmt.Sprintf("must be <= %v", *p.Maximum)}
		}
	case "boolean":
		if _, ok := v.(bool); !ok {
			return &ArgumentError{Reason: "must be a boolean"}
		}
	case "object":
		if _, ok := v.(map[string]any); !ok {
			return &ArgumentError{Reason: "must be an object"}
		}
	case "array":
		if _, ok := v.([]any); !ok {
			return &ArgumentError{Reason: "must be an array"}
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
