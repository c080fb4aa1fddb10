// Package matching scores incoming requests against route urls and methods.
//
// Route urls support:
//
//   - exact paths: "/api/users"
//   - named parameters, in both ":id" and "{id}" forms: "/api/users/:id"
//   - a trailing wildcard: "/api/*"
//   - inner wildcards matching any sequence: "/api/*/items"
//
// More specific matches score higher. When several routes match a request,
// the one with the highest score is served. Score constants are defined in
// scores.go.
package matching
