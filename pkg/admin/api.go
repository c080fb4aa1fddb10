package admin

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/mocks-server/mocks-server/pkg/config"
	"github.com/mocks-server/mocks-server/pkg/core"
)

// Plugin id and default mount path.
const (
	ID          = "adminApi"
	DefaultPath = "/admin"
)

// API is the admin REST API plugin.
type API struct {
	core *core.Core
	log  *slog.Logger
	path *config.Option
	mux  *http.ServeMux

	mu          sync.Mutex
	mounted     string
	unsubscribe func()
}

// New creates the admin API plugin.
func New() *API {
	return &API{}
}

// ID implements core.Plugin.
func (a *API) ID() string { return ID }

// Register declares the plugin options and builds the router.
func (a *API) Register(c *core.Core, ns *config.Namespace) error {
	var err error
	a.path, err = ns.AddOption(config.OptionDefinition{
		Name:        "path",
		Description: "Root path for admin routes",
		Type:        config.TypeString,
		Default:     DefaultPath,
	})
	if err != nil {
		return err
	}
	a.core = c
	a.log = c.Logger().With("module", "adminApi")
	a.mux = http.NewServeMux()
	a.registerRoutes(a.mux)
	return nil
}

// Init implements core.Plugin.
func (a *API) Init(context.Context) error { return nil }

// Start mounts the router and follows changes of the path option.
func (a *API) Start(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mount(a.currentPath())
	a.unsubscribe = a.path.OnChange(func(any) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.mounted == "" {
			return
		}
		a.mount(a.currentPath())
	})
	return nil
}

// Stop unmounts the router.
func (a *API) Stop(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.mounted != "" {
		a.core.Server().RemoveRouter(a.mounted)
		a.mounted = ""
	}
	return nil
}

// Handler returns the admin router, unmounted.
func (a *API) Handler() http.Handler {
	return a.mux
}

// Path returns the path the router is mounted on, empty when not mounted.
func (a *API) Path() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mounted
}

func (a *API) currentPath() string {
	path, _ := a.path.Value().(string)
	return path
}

// mount moves the router to path. Caller holds the lock.
func (a *API) mount(path string) {
	if a.mounted != "" {
		a.core.Server().RemoveRouter(a.mounted)
	}
	a.core.Server().AddRouter(path, a.mux)
	a.mounted = path
	a.log.Info("admin api mounted", "path", path)
}
