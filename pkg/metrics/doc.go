// Package metrics exposes Prometheus metrics for the mock server.
//
// A Registry owns its own prometheus.Registry, so several servers in one
// process (and tests) never collide on the global default registerer.
//
// # Metrics
//
//   - mocks_server_requests_total: counter of served requests (labels: route, variant, status)
//   - mocks_server_request_duration_seconds: histogram of request latency (labels: route, variant)
//   - mocks_server_routes: gauge of loaded routes
//   - mocks_server_collections: gauge of loaded collections
//
// Go runtime and process collectors are registered alongside.
//
// # Label Conventions
//
// route and variant hold the matched route id and variant id. Requests that
// match no route use "none" for both, requests served by a mounted router
// use the router path as route and "router" as variant.
package metrics
