// Package cli provides the command-line interface for mocks-server.
//
// Commands:
//   - (root): start the mock server and the admin API
//   - config: print the effective configuration as YAML
//   - version: show version information
//
// Every configuration option is also a flag named after its path, for
// example --server.port=3200 or --no-files.enabled.
package cli
