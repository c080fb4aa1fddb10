package core

import (
	"context"
	"fmt"

	"github.com/mocks-server/mocks-server/pkg/config"
)

// Plugin extends the core. Register is called once, before the configuration
// is loaded, with the plugin's own namespace (plugins.<id>) so it can declare
// options. Init runs after the configuration and the mock files are loaded.
type Plugin interface {
	ID() string
	Register(c *Core, ns *config.Namespace) error
	Init(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// PluginError reports the plugin and lifecycle step that failed.
type PluginError struct {
	Plugin string
	Step   string
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s: %s: %v", e.Plugin, e.Step, e.Err)
}

func (e *PluginError) Unwrap() error { return e.Err }
