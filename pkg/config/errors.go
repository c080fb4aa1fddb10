package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	// ErrNameCollision is returned when an option or namespace name is
	// already used at the same level.
	ErrNameCollision = errors.New("name collision")

	// ErrEmptyName is returned when a namespace is added without a name.
	ErrEmptyName = errors.New("name cannot be empty")
)

// FieldError is a single schema violation.
type FieldError struct {
	Path    string `json:"path"` // dotted path, e.g. "component.numberDefaultZero"
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// SchemaError is returned when a configuration object does not match the
// schema derived from the tree.
type SchemaError struct {
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	return "invalid configuration:\n" + joinFieldErrors(e.Errors)
}

// DeclarationError is returned by AddOption for a malformed option
// declaration.
type DeclarationError struct {
	Name   string
	Errors []FieldError
}

func (e *DeclarationError) Error() string {
	if e.Name == "" {
		return "invalid option declaration:\n" + joinFieldErrors(e.Errors)
	}
	return fmt.Sprintf("invalid declaration of option %q:\n%s", e.Name, joinFieldErrors(e.Errors))
}

// TypeError is returned when a value does not match the option type.
type TypeError struct {
	Value    any
	Expected Type
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s is not of type %s", formatValue(e.Value), e.Expected)
}

// OptionError locates a TypeError in the tree.
type OptionError struct {
	Option string // dotted path of the option
	Err    error
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("option %q: %v", e.Option, e.Err)
}

func (e *OptionError) Unwrap() error { return e.Err }

func joinFieldErrors(errs []FieldError) string {
	lines := make([]string, 0, len(errs))
	for _, fe := range errs {
		lines = append(lines, "  "+fe.Error())
	}
	return strings.Join(lines, "\n")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}
