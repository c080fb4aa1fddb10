// Package server serves the active mock collection over HTTP.
//
// The server declares its options (port, host, cors) in the namespace it is
// given and restarts itself when host or port change after start. Routers
// mounted with AddRouter take precedence over mocks; the longest mounted path
// prefix wins.
package server
