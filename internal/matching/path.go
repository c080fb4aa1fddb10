package matching

import "strings"

// MethodAny is the route method accepting every request method.
const MethodAny = "*"

// MatchPath checks if the request path matches the pattern.
// Returns a score > 0 if matched, 0 if not matched, and the values of the
// named parameters. A trailing slash is not significant.
func MatchPath(pattern, path string) (int, map[string]string) {
	pattern = trimSlash(pattern)
	path = trimSlash(path)

	if pattern == path {
		return ScorePathExact, nil
	}

	if hasNamedParams(pattern) {
		if params, ok := matchNamedParams(pattern, path); ok {
			return ScorePathNamedParams, params
		}
	}

	// Trailing wildcard (e.g., /api/users/*)
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return ScorePathWildcard, nil
		}
	}

	if strings.Contains(pattern, "*") && matchWildcard(pattern, path) {
		return ScorePathWildcard, nil
	}

	return 0, nil
}

// MatchMethod scores the request method against the route methods.
func MatchMethod(methods []string, method string) int {
	score := 0
	for _, m := range methods {
		switch {
		case strings.EqualFold(m, method):
			return ScoreMethod
		case m == MethodAny:
			score = ScoreMethodAny
		}
	}
	return score
}

func trimSlash(p string) string {
	if len(p) > 1 {
		return strings.TrimSuffix(p, "/")
	}
	return p
}

func hasNamedParams(pattern string) bool {
	return strings.Contains(pattern, "/:") || (strings.Contains(pattern, "{") && strings.Contains(pattern, "}"))
}

// paramName returns the name of a ":name" or "{name}" segment.
func paramName(segment string) (string, bool) {
	if strings.HasPrefix(segment, ":") && len(segment) > 1 {
		return segment[1:], true
	}
	if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") && len(segment) > 2 {
		return segment[1 : len(segment)-1], true
	}
	return "", false
}

// matchNamedParams checks if path matches a pattern with named parameters.
// Example: "/users/:id" matches "/users/123" with id=123.
func matchNamedParams(pattern, path string) (map[string]string, bool) {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")

	// Must have same number of segments
	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	params := make(map[string]string)
	for i, patternPart := range patternParts {
		if name, ok := paramName(patternPart); ok {
			if pathParts[i] == "" {
				return nil, false
			}
			params[name] = pathParts[i]
			continue
		}
		if patternPart != "*" && patternPart != pathParts[i] {
			return nil, false
		}
	}
	return params, true
}

// matchWildcard performs simple wildcard pattern matching.
// * matches any sequence of characters.
func matchWildcard(pattern, path string) bool {
	parts := strings.Split(pattern, "*")
	pos := 0
	for i, part := range parts {
		if part == "" {
			continue
		}
		// first part must be a prefix
		if i == 0 {
			if !strings.HasPrefix(path, part) {
				return false
			}
			pos = len(part)
			continue
		}
		idx := strings.Index(path[pos:], part)
		if idx == -1 {
			return false
		}
		pos += idx + len(part)
	}
	// last part must be a suffix unless the pattern ends with a wildcard
	if last := parts[len(parts)-1]; last != "" && !strings.HasSuffix(path, last) {
		return false
	}
	return true
}
