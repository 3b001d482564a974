// Package tools exposes the content fetchers as named, schema-typed functions
// the scoring model may invoke mid-reasoning.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when tool arguments violate the declared
// schema. It signals a model or prompt defect, not a transient failure.
var ErrInvalidInput = errors.New("invalid tool input")

// ErrUnknownTool is returned for tool names outside the registry.
var ErrUnknownTool = errors.New("unknown tool")

// Property describes one tool parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Schema is the JSON-schema slice a tool declares for its input object.
type Schema struct {
	Properties map[string]Property
	Required   []string
}

// Tool is a callable unit: name, description, input schema, and the function
// behind it. Run receives arguments already validated against the schema.
type Tool struct {
	Name        string
	Description string
	Schema      Schema
	Run         func(ctx context.Context, args map[string]string) (string, error)
}

// Registry holds the fixed tool set in declaration order.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.order = append(r.order, t.Name)
		r.tools[t.Name] = t
	}
	return r
}

// List returns the tools in declaration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Invoke validates the raw arguments against the tool's schema and runs it.
// Validation failures surface as ErrInvalidInput before any fetch happens.
func (r *Registry) Invoke(ctx context.Context, name string, rawArgs json.RawMessage) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	args, err := tool.Schema.validate(rawArgs)
	if err != nil {
		return "", err
	}

	return tool.Run(ctx, args)
}

// validate checks required fields and types, returning the decoded string
// arguments.
func (s Schema) validate(rawArgs json.RawMessage) (map[string]string, error) {
	var decoded map[string]any
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &decoded); err != nil {
			return nil, fmt.Errorf("%w: arguments are not a JSON object: %v", ErrInvalidInput, err)
		}
	}

	args := make(map[string]string, len(decoded))
	for key, value := range decoded {
		prop, ok := s.Properties[key]
		if !ok {
			return nil, fmt.Errorf("%w: unexpected parameter %q", ErrInvalidInput, key)
		}
		str, ok := value.(string)
		if !ok || prop.Type != "string" {
			return nil, fmt.Errorf("%w: parameter %q must be a string", ErrInvalidInput, key)
		}
		args[key] = str
	}

	for _, required := range s.Required {
		if args[required] == "" {
			return nil, fmt.Errorf("%w: missing required parameter %q", ErrInvalidInput, required)
		}
	}

	return args, nil
}
