package config

import (
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mocks-server/mocks-server/internal/schema"
)

// Group is a set of namespaces validated together. A named group nests its
// namespaces under one property; the anonymous group puts them at the top
// level.
type Group struct {
	Name       string
	Namespaces []*Namespace
}

// ValidateConfigOptions controls ValidateConfig.
type ValidateConfigOptions struct {
	Groups []Group

	// AllowAdditionalNamespaces accepts unknown keys at the top level and
	// inside named groups.
	AllowAdditionalNamespaces bool
}

var (
	optionSchemaOnce sync.Once
	optionSchema     *jsonschema.Schema
	optionSchemaErr  error
)

// optionSchemaDocument is the meta-schema of option declarations: exactly one
// branch per type, the default having the declared type.
func optionSchemaDocument() map[string]any {
	branches := make([]any, 0, len(Types))
	for _, t := range Types {
		branches = append(branches, map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":      "string",
					"minLength": 1,
					"pattern":   `^[^.]+$`,
				},
				"description": map[string]any{"type": "string"},
				"type":        map[string]any{"enum": []any{string(t)}},
				"default":     map[string]any{"type": string(t)},
			},
			"required":             []any{"name", "type"},
			"additionalProperties": false,
		})
	}
	return map[string]any{
		"type":     "object",
		"required": []any{"name", "type"},
		"oneOf":    branches,
	}
}

// ValidateOption checks an option declaration against the option meta-schema.
func ValidateOption(def OptionDefinition) error {
	optionSchemaOnce.Do(func() {
		optionSchema, optionSchemaErr = schema.Compile("option.json", optionSchemaDocument())
	})
	if optionSchemaErr != nil {
		return optionSchemaErr
	}

	doc := map[string]any{
		"name": def.Name,
		"type": string(def.Type),
	}
	if def.Description != "" {
		doc["description"] = def.Description
	}
	if def.Default != nil {
		value, err := normalize(def.Default)
		if err != nil {
			return &DeclarationError{Name: def.Name, Errors: []FieldError{{Path: "default", Message: err.Error()}}}
		}
		doc["default"] = value
	}

	if violations := schema.Validate(optionSchema, doc); len(violations) > 0 {
		return &DeclarationError{Name: def.Name, Errors: fieldErrors(violations)}
	}
	return nil
}

// ValidateConfig checks cfg against a schema derived from the current tree.
// The schema is rebuilt on every call so it reflects options declared late.
func ValidateConfig(cfg map[string]any, opts ValidateConfigOptions) error {
	compiled, err := schema.Compile("config.json", configSchema(opts))
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = map[string]any{}
	}
	if violations := schema.Validate(compiled, cfg); len(violations) > 0 {
		return &SchemaError{Errors: fieldErrors(violations)}
	}
	return nil
}

func objectSchema(allowAdditional bool) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": allowAdditional,
	}
}

func configSchema(opts ValidateConfigOptions) map[string]any {
	root := objectSchema(false)
	for _, group := range opts.Groups {
		if group.Name != "" {
			nested := objectSchema(opts.AllowAdditionalNamespaces)
			addNamespaces(nested, group.Namespaces)
			root["properties"].(map[string]any)[group.Name] = nested
			continue
		}
		if opts.AllowAdditionalNamespaces {
			root["additionalProperties"] = true
		}
		addNamespaces(root, group.Namespaces)
	}
	return root
}

func addNamespaces(schema map[string]any, namespaces []*Namespace) {
	props := schema["properties"].(map[string]any)
	for _, ns := range namespaces {
		if ns.Name() == "" {
			addNamespaceContents(schema, ns)
			continue
		}
		props[ns.Name()] = namespaceSchema(ns)
	}
}

func namespaceSchema(ns *Namespace) map[string]any {
	schema := objectSchema(false)
	addNamespaceContents(schema, ns)
	return schema
}

func addNamespaceContents(schema map[string]any, ns *Namespace) {
	props := schema["properties"].(map[string]any)
	for _, opt := range ns.Options() {
		props[opt.Name()] = map[string]any{"type": string(opt.Type())}
	}
	for _, child := range ns.Namespaces() {
		props[child.Name()] = namespaceSchema(child)
	}
}

func fieldErrors(violations []schema.Violation) []FieldError {
	out := make([]FieldError, len(violations))
	for i, v := range violations {
		out[i] = FieldError{Path: v.Path, Message: v.Message}
	}
	return out
}
