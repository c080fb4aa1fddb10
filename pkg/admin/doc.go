// Package admin provides the REST API plugin used to inspect and change the
// mocks server at runtime.
//
// The API is mounted in the mocks server under the path given by the
// plugins.adminApi.path option, and moved when the option changes.
//
// Endpoints:
//
//	GET    /about                          - Versions
//	GET    /config                         - Current configuration
//	PATCH  /config                         - Change configuration
//	GET    /mock/collections               - List collections
//	GET    /mock/collections/{id}          - Get a collection
//	GET    /mock/routes                    - List routes
//	GET    /mock/routes/{id}               - Get a route
//	GET    /mock/variants                  - List route variants
//	GET    /mock/variants/{id}             - Get a route variant
//	GET    /mock/custom-route-variants     - List custom route variants
//	POST   /mock/custom-route-variants     - Use a route variant
//	DELETE /mock/custom-route-variants     - Restore collection route variants
//	GET    /metrics                        - Prometheus metrics
//	GET    /logs                           - Latest log entries
//
// Usage:
//
//	c, err := core.New(core.WithPlugins(admin.New()))
package admin
