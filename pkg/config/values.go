package config

import (
	"encoding/json"
	"reflect"

	"github.com/knadh/koanf/maps"

	"github.com/mocks-server/mocks-server/internal/schema"
)

func isJSONNumber(v any) bool {
	_, ok := v.(json.Number)
	return ok
}

func normalize(v any) (any, error) {
	return schema.Normalize(v)
}

func normalizeMap(m map[string]any) (map[string]any, error) {
	if m == nil {
		return map[string]any{}, nil
	}
	v, err := normalize(m)
	if err != nil {
		return nil, err
	}
	out, _ := v.(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// copyValue returns a deep copy of maps so callers cannot mutate option state.
func copyValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		if m == nil {
			return m
		}
		return maps.Copy(m)
	}
	return v
}

// mergeObject deep merges src onto a copy of dst. Nested maps merge, any
// other value (arrays included) replaces.
func mergeObject(dst, src map[string]any) map[string]any {
	out := map[string]any{}
	if len(dst) > 0 {
		out = maps.Copy(dst)
	}
	if len(src) > 0 {
		maps.Merge(maps.Copy(src), out)
	}
	return out
}

func equalValues(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
