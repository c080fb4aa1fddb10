package mock

import (
	"encoding/json"
	"errors"
	"strings"
)

// Methods is the list of methods of a route. It is written as a single
// string or as a list.
type Methods []string

// UnmarshalJSON accepts "get" as well as ["get", "post"].
func (m *Methods) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*m = Methods{strings.ToUpper(single)}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.New("method must be a string or a list of strings")
	}
	out := make(Methods, len(list))
	for i, method := range list {
		out[i] = strings.ToUpper(method)
	}
	*m = out
	return nil
}

// MarshalJSON writes a single method as a string.
func (m Methods) MarshalJSON() ([]byte, error) {
	if len(m) == 1 {
		return json.Marshal(m[0])
	}
	return json.Marshal([]string(m))
}

// RouteDefinition declares a route.
type RouteDefinition struct {
	ID       string              `json:"id" yaml:"id"`
	URL      string              `json:"url" yaml:"url"`
	Method   Methods             `json:"method" yaml:"method"`
	Delay    *float64            `json:"delay,omitempty" yaml:"delay,omitempty"`
	Variants []VariantDefinition `json:"variants" yaml:"variants"`
}

// VariantDefinition declares a route variant.
type VariantDefinition struct {
	ID       string         `json:"id" yaml:"id"`
	Type     string         `json:"type" yaml:"type"`
	Delay    *float64       `json:"delay,omitempty" yaml:"delay,omitempty"`
	Disabled bool           `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Options  map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// CollectionDefinition declares a collection. Routes are "<route>:<variant>"
// ids.
type CollectionDefinition struct {
	ID     string   `json:"id" yaml:"id"`
	From   string   `json:"from,omitempty" yaml:"from,omitempty"`
	Routes []string `json:"routes" yaml:"routes"`
}

// VariantID returns the id of the variant of a route.
func VariantID(routeID, variantID string) string {
	return routeID + ":" + variantID
}
