package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"

	"github.com/mocks-server/mocks-server/pkg/config"
	"github.com/mocks-server/mocks-server/pkg/logging"
	"github.com/mocks-server/mocks-server/pkg/metrics"
	"github.com/mocks-server/mocks-server/pkg/mock"
	"github.com/mocks-server/mocks-server/pkg/server"
)

// Default option values.
const (
	DefaultLogLevel  = "info"
	DefaultFilesPath = "mocks"
)

var (
	// ErrAlreadyStarted is returned by Start when the core is running.
	ErrAlreadyStarted = errors.New("core already started")
	// ErrDuplicatePlugin is returned when two plugins share an id.
	ErrDuplicatePlugin = errors.New("duplicate plugin id")
)

// Core is the mocks server application.
type Core struct {
	config  *config.Config
	log     *slog.Logger
	level   *slog.LevelVar
	logs    *logging.Store
	mock    *mock.Mock
	server  *server.Server
	metrics *metrics.Registry
	plugins []Plugin

	logOption    *config.Option
	filesPath    *config.Option
	filesEnabled *config.Option
	selected     *config.Option
	delay        *config.Option
	pluginsNs    *config.Namespace

	mu          sync.Mutex
	registered  bool
	initialized bool
	started     bool
}

type options struct {
	programmatic map[string]any
	args         []string
	envPrefix    string
	logOutput    io.Writer
	logFormat    logging.Format
	plugins      []Plugin
}

// Option configures a Core.
type Option func(*options)

// WithConfig sets the programmatic configuration, the lowest precedence
// source.
func WithConfig(values map[string]any) Option {
	return func(o *options) {
		o.programmatic = values
	}
}

// WithArgs sets the command line arguments read as a configuration source.
func WithArgs(args []string) Option {
	return func(o *options) {
		o.args = args
	}
}

// WithEnvPrefix changes the prefix of the environment variables read.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithLogOutput sets where logs are written. Defaults to os.Stderr.
func WithLogOutput(w io.Writer, format logging.Format) Option {
	return func(o *options) {
		o.logOutput = w
		o.logFormat = format
	}
}

// WithPlugins adds plugins, registered in the given order.
func WithPlugins(plugins ...Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugins...)
	}
}

// New creates a Core and declares the options of every built-in module.
func New(opts ...Option) (*Core, error) {
	o := options{
		envPrefix: config.DefaultEnvPrefix,
		logOutput: os.Stderr,
		logFormat: logging.FormatText,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Core{
		level:   new(slog.LevelVar),
		logs:    logging.NewStore(logging.DefaultStoreSize),
		metrics: metrics.NewRegistry(),
		plugins: o.plugins,
	}
	c.log = slog.New(logging.NewMultiHandler(
		logging.NewHandler(logging.Config{Output: o.logOutput, Format: o.logFormat}, c.level),
		c.logs.Handler(c.level),
	))

	c.config = config.New(
		config.WithProgrammatic(o.programmatic),
		config.WithArgs(o.args),
		config.WithEnvPrefix(o.envPrefix),
		config.WithLogger(c.log.With("module", "config")),
	)
	if err := c.declare(); err != nil {
		return nil, err
	}

	c.mock = mock.New(mock.WithLogger(c.log.With("module", "mock")))
	c.mock.OnChange(func() {
		c.metrics.SetMocks(len(c.mock.Routes()), len(c.mock.Collections()))
	})

	serverNs, err := c.config.AddNamespace("server")
	if err != nil {
		return nil, err
	}
	c.server, err = server.New(serverNs, c.mock,
		server.WithLogger(c.log.With("module", "server")),
		server.WithMetrics(c.metrics),
	)
	if err != nil {
		return nil, err
	}

	c.logOption.OnChange(func(v any) { c.setLevel(v) })
	c.selected.OnChange(func(v any) {
		id, _ := v.(string)
		c.mock.SelectCollection(id)
	})
	c.delay.OnChange(func(v any) {
		ms, _ := v.(float64)
		c.mock.SetDelay(ms)
	})
	return c, nil
}

func (c *Core) declare() error {
	var err error
	c.logOption, err = c.config.AddOption(config.OptionDefinition{
		Name:        "log",
		Description: "Log level. Can be one of silly, debug, verbose, info, warn, error or silent",
		Type:        config.TypeString,
		Default:     DefaultLogLevel,
	})
	if err != nil {
		return err
	}

	files, err := c.config.AddNamespace("files")
	if err != nil {
		return err
	}
	filesOptions, err := files.AddOptions([]config.OptionDefinition{
		{
			Name:        "path",
			Description: "Folder containing the collections and routes files",
			Type:        config.TypeString,
			Default:     DefaultFilesPath,
		},
		{
			Name:        "enabled",
			Description: "Load collections and routes from the files folder",
			Type:        config.TypeBoolean,
			Default:     true,
		},
	})
	if err != nil {
		return err
	}
	c.filesPath, c.filesEnabled = filesOptions[0], filesOptions[1]

	mockNs, err := c.config.AddNamespace("mock")
	if err != nil {
		return err
	}
	collections, err := mockNs.AddNamespace("collections")
	if err != nil {
		return err
	}
	c.selected, err = collections.AddOption(config.OptionDefinition{
		Name:        "selected",
		Description: "Selected collection",
		Type:        config.TypeString,
	})
	if err != nil {
		return err
	}
	routes, err := mockNs.AddNamespace("routes")
	if err != nil {
		return err
	}
	c.delay, err = routes.AddOption(config.OptionDefinition{
		Name:        "delay",
		Description: "Global delay to apply to routes, in milliseconds",
		Type:        config.TypeNumber,
		Default:     0,
	})
	if err != nil {
		return err
	}

	c.pluginsNs, err = c.config.AddNamespace("plugins")
	return err
}

func (c *Core) setLevel(v any) {
	name, _ := v.(string)
	c.level.Set(logging.ParseLevel(name))
}

// Config returns the configuration tree.
func (c *Core) Config() *config.Config { return c.config }

// Logger returns the application logger.
func (c *Core) Logger() *slog.Logger { return c.log }

// Logs returns the store keeping the latest log entries.
func (c *Core) Logs() *logging.Store { return c.logs }

// Mock returns the mock engine.
func (c *Core) Mock() *mock.Mock { return c.mock }

// Server returns the HTTP server.
func (c *Core) Server() *server.Server { return c.server }

// Metrics returns the metrics registry.
func (c *Core) Metrics() *metrics.Registry { return c.metrics }

// Plugins returns the registered plugins.
func (c *Core) Plugins() []Plugin { return c.plugins }

// Init registers the plugins, loads the configuration and the mock files and
// initializes the plugins. Calling it again is a no-op.
func (c *Core) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.init(ctx)
}

// Register lets every plugin declare its options, so they are known before
// the configuration is loaded. Init calls it; calling it again is a no-op.
func (c *Core) Register() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.register()
}

func (c *Core) register() error {
	if c.registered {
		return nil
	}
	seen := make(map[string]bool, len(c.plugins))
	for _, p := range c.plugins {
		id := p.ID()
		if seen[id] {
			return fmt.Errorf("%w: %s", ErrDuplicatePlugin, id)
		}
		seen[id] = true
		ns, err := c.pluginsNs.AddNamespace(id)
		if err != nil {
			return &PluginError{Plugin: id, Step: "register", Err: err}
		}
		if err := p.Register(c, ns); err != nil {
			return &PluginError{Plugin: id, Step: "register", Err: err}
		}
	}
	c.registered = true
	return nil
}

func (c *Core) init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.register(); err != nil {
		return err
	}

	if err := c.config.Init(); err != nil {
		return err
	}
	c.setLevel(c.logOption.Value())
	if file := c.config.LoadedFile(); file != "" {
		c.log.Info("configuration file loaded", "file", file)
	}

	if err := c.loadFiles(); err != nil {
		return err
	}
	ms, _ := c.delay.Value().(float64)
	c.mock.SetDelay(ms)
	selected, _ := c.selected.Value().(string)
	c.mock.SelectCollection(selected)

	for _, p := range c.plugins {
		if err := p.Init(ctx); err != nil {
			return &PluginError{Plugin: p.ID(), Step: "init", Err: err}
		}
	}
	c.initialized = true
	return nil
}

// loadFiles loads the routes and collections of the files folder. A missing
// folder is not an error.
func (c *Core) loadFiles() error {
	if enabled, _ := c.filesEnabled.Value().(bool); !enabled {
		return nil
	}
	path, _ := c.filesPath.Value().(string)
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		c.log.Warn("mocks folder not found, no routes loaded from files", "path", path)
		return nil
	}
	return c.LoadFiles(os.DirFS(path))
}

// LoadFiles loads routes and collections from fsys, replacing the current
// ones. Invalid items are skipped and logged.
func (c *Core) LoadFiles(fsys fs.FS) error {
	loader := mock.NewFilesLoader(fsys, c.log.With("module", "files"))
	res, err := loader.Load()
	if err != nil {
		return err
	}
	for _, err := range res.Errors {
		c.log.Warn("error loading mock file", "error", err)
	}
	c.mock.Load(res.Routes, res.Collections)
	c.log.Info("mock files loaded", "routes", len(res.Routes), "collections", len(res.Collections))
	return nil
}

// Start initializes the core if needed, switches the configuration into
// emitting mode, starts the server and then the plugins.
func (c *Core) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	if err := c.init(ctx); err != nil {
		return err
	}
	c.config.Start()
	if err := c.server.Start(ctx); err != nil {
		return err
	}
	for _, p := range c.plugins {
		if err := p.Start(ctx); err != nil {
			return &PluginError{Plugin: p.ID(), Step: "start", Err: err}
		}
	}
	c.started = true
	return nil
}

// Stop stops the plugins, in reverse order, and the server.
func (c *Core) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	var errs []error
	for i := len(c.plugins) - 1; i >= 0; i-- {
		p := c.plugins[i]
		if err := p.Stop(ctx); err != nil {
			errs = append(errs, &PluginError{Plugin: p.ID(), Step: "stop", Err: err})
		}
	}
	if err := c.server.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	c.started = false
	return errors.Join(errs...)
}

// LoadRoutes replaces the loaded routes.
func (c *Core) LoadRoutes(routes []mock.RouteDefinition) []error {
	return c.mock.LoadRoutes(routes)
}

// LoadCollections replaces the loaded collections.
func (c *Core) LoadCollections(collections []mock.CollectionDefinition) []error {
	return c.mock.LoadCollections(collections)
}

// OnChangeMocks registers fn to be called when routes, collections or the
// served variants change. The returned function unsubscribes.
func (c *Core) OnChangeMocks(fn func()) func() {
	return c.mock.OnChange(fn)
}

// Version returns the module version from the build information.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "dev"
	}
	return info.Main.Version
}
