package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointerToPath(t *testing.T) {
	assert.Equal(t, "", PointerToPath(""))
	assert.Equal(t, "", PointerToPath("/"))
	assert.Equal(t, "component.alias", PointerToPath("/component/alias"))
	assert.Equal(t, "variants.0.id", PointerToPath("/variants/0/id"))
	assert.Equal(t, "a/b.c~d", PointerToPath("/a~1b/c~0d"))
}

func TestValidate(t *testing.T) {
	s, err := Compile("test.json", map[string]any{
		"type":     "object",
		"required": []any{"id"},
		"properties": map[string]any{
			"id":    map[string]any{"type": "string"},
			"delay": map[string]any{"type": "number", "minimum": 0},
		},
		"additionalProperties": false,
	})
	require.NoError(t, err)

	assert.Empty(t, Validate(s, map[string]any{"id": "foo", "delay": 10}))

	violations := Validate(s, map[string]any{"id": "foo", "delay": -1})
	require.Len(t, violations, 1)
	assert.Equal(t, "delay", violations[0].Path)
	assert.Contains(t, violations[0].String(), "delay: ")

	violations = Validate(s, map[string]any{"delay": 1})
	require.NotEmpty(t, violations)
	assert.Equal(t, "", violations[0].Path)
}

func TestCompileInvalidSchema(t *testing.T) {
	_, err := Compile("invalid.json", map[string]any{"type": 5})
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	v, err := Normalize(map[string]any{"n": 1, "list": []string{"a"}, "nested": map[string]int{"b": 2}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"n":      float64(1),
		"list":   []any{"a"},
		"nested": map[string]any{"b": float64(2)},
	}, v)

	_, err = Normalize(map[string]any{"f": func() {}})
	assert.Error(t, err)
}
