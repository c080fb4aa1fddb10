// Package schema compiles JSON schemas built as Go maps and flattens their
// validation errors into path-annotated violations.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Violation is a single schema violation.
type Violation struct {
	Path    string // dotted path, empty for the document itself
	Message string
}

func (v Violation) String() string {
	if v.Path != "" {
		return fmt.Sprintf("%s: %s", v.Path, v.Message)
	}
	return v.Message
}

// Compile compiles doc as a draft 2020-12 schema registered under name.
func Compile(name string, doc map[string]any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	s, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return s, nil
}

// Validate validates v, normalized to its JSON shape, against s and returns
// the violations found.
func Validate(s *jsonschema.Schema, v any) []Violation {
	doc, err := Normalize(v)
	if err != nil {
		return []Violation{{Message: err.Error()}}
	}
	if err := s.Validate(doc); err != nil {
		return Violations(err)
	}
	return nil
}

// Violations flattens a jsonschema error into its leaf causes, without
// duplicates.
func Violations(err error) []Violation {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []Violation{{Message: err.Error()}}
	}
	var out []Violation
	seen := map[Violation]bool{}
	collect(verr, &out, seen)
	return out
}

func collect(err *jsonschema.ValidationError, out *[]Violation, seen map[Violation]bool) {
	if len(err.Causes) == 0 {
		v := Violation{Path: PointerToPath(err.InstanceLocation), Message: err.Message}
		if !seen[v] {
			seen[v] = true
			*out = append(*out, v)
		}
		return
	}
	for _, cause := range err.Causes {
		collect(cause, out, seen)
	}
}

// PointerToPath converts a JSON pointer into dotted notation.
func PointerToPath(pointer string) string {
	if pointer == "" || pointer == "/" {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		parts[i] = strings.ReplaceAll(part, "~0", "~")
	}
	return strings.Join(parts, ".")
}

// Normalize converts v into its JSON shape: numbers become float64, maps
// become map[string]any and slices []any.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, float64:
		return val, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	return out, nil
}
