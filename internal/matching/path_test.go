package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPath(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		path       string
		wantScore  int
		wantParams map[string]string
	}{
		{"exact", "/api/users", "/api/users", ScorePathExact, nil},
		{"exact trailing slash", "/api/users/", "/api/users", ScorePathExact, nil},
		{"root", "/", "/", ScorePathExact, nil},
		{"different path", "/api/users", "/api/books", 0, nil},
		{"colon param", "/api/users/:id", "/api/users/1", ScorePathNamedParams, map[string]string{"id": "1"}},
		{"brace param", "/api/users/{id}", "/api/users/2", ScorePathNamedParams, map[string]string{"id": "2"}},
		{"several params", "/api/:type/:id", "/api/books/3", ScorePathNamedParams, map[string]string{"type": "books", "id": "3"}},
		{"param segment count", "/api/users/:id", "/api/users/1/books", 0, nil},
		{"param literal mismatch", "/api/users/:id", "/api/books/1", 0, nil},
		{"trailing wildcard", "/api/*", "/api/users/1", ScorePathWildcard, nil},
		{"trailing wildcard prefix", "/api/*", "/api", ScorePathWildcard, nil},
		{"trailing wildcard mismatch", "/api/*", "/apis/users", 0, nil},
		{"inner wildcard", "/api/*/items", "/api/users/items", ScorePathWildcard, nil},
		{"inner wildcard suffix mismatch", "/api/*/items", "/api/users/items/1", 0, nil},
		{"any path", "*", "/whatever", ScorePathWildcard, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, params := MatchPath(tt.pattern, tt.path)
			assert.Equal(t, tt.wantScore, score)
			if tt.wantParams != nil {
				assert.Equal(t, tt.wantParams, params)
			}
		})
	}
}

func TestMatchMethod(t *testing.T) {
	assert.Equal(t, ScoreMethod, MatchMethod([]string{"GET"}, "GET"))
	assert.Equal(t, ScoreMethod, MatchMethod([]string{"POST", "get"}, "GET"))
	assert.Equal(t, ScoreMethodAny, MatchMethod([]string{MethodAny}, "DELETE"))
	assert.Equal(t, ScoreMethod, MatchMethod([]string{MethodAny, "DELETE"}, "DELETE"))
	assert.Zero(t, MatchMethod([]string{"POST"}, "GET"))
	assert.Zero(t, MatchMethod(nil, "GET"))
}

func TestExactBeatsParamsBeatsWildcard(t *testing.T) {
	exact, _ := MatchPath("/api/users/me", "/api/users/me")
	params, _ := MatchPath("/api/users/:id", "/api/users/me")
	wildcard, _ := MatchPath("/api/*", "/api/users/me")

	assert.Greater(t, exact, params)
	assert.Greater(t, params, wildcard)
}
