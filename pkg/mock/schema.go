package mock

import (
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mocks-server/mocks-server/internal/schema"
)

var methodNames = []any{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS", "TRACE", "*"}

var delaySchema = map[string]any{"type": []any{"number", "null"}, "minimum": 0}

func routeSchemaDocument() map[string]any {
	method := map[string]any{"type": "string", "enum": methodNames}
	return map[string]any{
		"type":     "object",
		"required": []any{"id", "url", "method", "variants"},
		"properties": map[string]any{
			"id":  map[string]any{"type": "string", "minLength": 1, "pattern": "^[^:]+$"},
			"url": map[string]any{"type": "string", "minLength": 1},
			"method": map[string]any{
				"oneOf": []any{
					method,
					map[string]any{"type": "array", "items": method, "minItems": 1},
				},
			},
			"delay": delaySchema,
			"variants": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"id", "type"},
					"properties": map[string]any{
						"id":       map[string]any{"type": "string", "minLength": 1, "pattern": "^[^:]+$"},
						"type":     map[string]any{"type": "string", "minLength": 1},
						"delay":    delaySchema,
						"disabled": map[string]any{"type": "boolean"},
						"options":  map[string]any{"type": []any{"object", "null"}},
					},
				},
			},
		},
	}
}

func collectionSchemaDocument() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"id", "routes"},
		"properties": map[string]any{
			"id":   map[string]any{"type": "string", "minLength": 1},
			"from": map[string]any{"type": []any{"string", "null"}},
			"routes": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "pattern": "^[^:]+:[^:]+$"},
			},
		},
	}
}

var (
	schemasOnce      sync.Once
	routeSchema      *jsonschema.Schema
	collectionSchema *jsonschema.Schema
	schemasErr       error
)

func compileSchemas() error {
	schemasOnce.Do(func() {
		if routeSchema, schemasErr = schema.Compile("route.json", routeSchemaDocument()); schemasErr != nil {
			return
		}
		collectionSchema, schemasErr = schema.Compile("collection.json", collectionSchemaDocument())
	})
	return schemasErr
}

// ValidateRoute checks a route document, as decoded from a file or built
// from a RouteDefinition, against the route schema.
func ValidateRoute(doc any) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	normalized, err := schema.Normalize(doc)
	if err != nil {
		return &ValidationError{Kind: "route", Details: []string{err.Error()}}
	}
	upperMethods(normalized)
	if violations := schema.Validate(routeSchema, normalized); len(violations) > 0 {
		return newValidationError("route", documentID(normalized), violations)
	}
	return nil
}

// ValidateCollection checks a collection document against the collection
// schema.
func ValidateCollection(doc any) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	if violations := schema.Validate(collectionSchema, doc); len(violations) > 0 {
		normalized, _ := schema.Normalize(doc)
		return newValidationError("collection", documentID(normalized), violations)
	}
	return nil
}

// upperMethods makes methods case insensitive before validation.
func upperMethods(doc any) {
	m, ok := doc.(map[string]any)
	if !ok {
		return
	}
	switch method := m["method"].(type) {
	case string:
		m["method"] = strings.ToUpper(method)
	case []any:
		for i, item := range method {
			if s, ok := item.(string); ok {
				method[i] = strings.ToUpper(s)
			}
		}
	}
}

func documentID(doc any) string {
	if m, ok := doc.(map[string]any); ok {
		if id, ok := m["id"].(string); ok {
			return id
		}
	}
	return ""
}
