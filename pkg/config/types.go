package config

import "reflect"

// Type is the value type of an option.
type Type string

// Supported option types.
const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
)

// Types lists every supported option type.
var Types = []Type{TypeString, TypeNumber, TypeBoolean, TypeObject}

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// OptionDefinition declares an option. It is the input of AddOption.
type OptionDefinition struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Type        Type   `json:"type" yaml:"type"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// ValidateValueType checks the run-time type of value against t.
// Any Go numeric kind is a number and any map keyed by strings is an object.
// Nil values, including nil maps, match no type.
func ValidateValueType(value any, t Type) error {
	if !t.Valid() {
		return &DeclarationError{Errors: []FieldError{{Path: "type", Message: "unknown option type " + string(t)}}}
	}
	if !hasType(value, t) {
		return &TypeError{Value: value, Expected: t}
	}
	return nil
}

func hasType(value any, t Type) bool {
	if isNil(value) {
		return false
	}
	rv := reflect.ValueOf(value)
	switch t {
	case TypeNumber:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
		return isJSONNumber(value)
	case TypeString:
		return rv.Kind() == reflect.String && !isJSONNumber(value)
	case TypeBoolean:
		return rv.Kind() == reflect.Bool
	case TypeObject:
		return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
	}
	return false
}

// isNil reports whether value is nil or a nil map.
func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Map && rv.IsNil()
}
