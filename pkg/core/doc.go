// Package core wires the configuration tree, the mock engine, the HTTP
// server and the plugins together.
//
// Every module declares its options in its own namespace of the tree, so the
// whole application is configured through the same sources:
//
//	log                       logs level
//	config.*                  configuration sources
//	files.path                folder with collections and routes files
//	files.enabled             load the files folder or not
//	mock.collections.selected collection served
//	mock.routes.delay         global routes delay in milliseconds
//	server.*                  see package server
//	plugins.<id>.*            declared by each plugin
package core
