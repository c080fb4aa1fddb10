package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mocks-server/mocks-server/pkg/logging"
)

// DefaultEnvPrefix prefixes the environment variables read for options.
const DefaultEnvPrefix = "MOCKS_"

// DefaultFileNames are the configuration file names looked up, in order, in
// the file search path.
var DefaultFileNames = []string{"mocks.config.yaml", "mocks.config.yml", "mocks.config.json"}

const namespaceConfig = "config"

// Config owns the configuration tree and merges the programmatic, file,
// environment and argument sources into it.
type Config struct {
	root         *Namespace
	programmatic map[string]any
	args         []string
	envPrefix    string
	fileNames    []string
	log          *slog.Logger

	mu         sync.Mutex
	loadedFile string

	readFile              *Option
	readArguments         *Option
	readEnvironment       *Option
	fileSearchPath        *Option
	allowUnknownArguments *Option
}

// ConfigOption configures a Config.
type ConfigOption func(*Config)

// WithProgrammatic sets the programmatic source, the lowest precedence one.
func WithProgrammatic(values map[string]any) ConfigOption {
	return func(c *Config) {
		c.programmatic = values
	}
}

// WithArgs sets the command line arguments to parse.
func WithArgs(args []string) ConfigOption {
	return func(c *Config) {
		c.args = args
	}
}

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) ConfigOption {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithFileNames changes the configuration file names looked up.
func WithFileNames(names ...string) ConfigOption {
	return func(c *Config) {
		c.fileNames = names
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) ConfigOption {
	return func(c *Config) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a Config with its own "config" namespace declared.
func New(opts ...ConfigOption) *Config {
	c := &Config{
		root:      newNamespace("", nil),
		envPrefix: DefaultEnvPrefix,
		fileNames: DefaultFileNames,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	ns := must(c.root.AddNamespace(namespaceConfig))
	c.readFile = must(ns.AddOption(OptionDefinition{
		Name:        "readFile",
		Type:        TypeBoolean,
		Description: "Read configuration file or not",
		Default:     true,
	}))
	c.readArguments = must(ns.AddOption(OptionDefinition{
		Name:        "readArguments",
		Type:        TypeBoolean,
		Description: "Read command line arguments or not",
		Default:     true,
	}))
	c.readEnvironment = must(ns.AddOption(OptionDefinition{
		Name:        "readEnvironment",
		Type:        TypeBoolean,
		Description: "Read environment or not",
		Default:     true,
	}))
	c.fileSearchPath = must(ns.AddOption(OptionDefinition{
		Name:        "fileSearchPath",
		Type:        TypeString,
		Description: "Folder where the configuration file is searched",
		Default:     cwd,
	}))
	c.allowUnknownArguments = must(ns.AddOption(OptionDefinition{
		Name:        "allowUnknownArguments",
		Type:        TypeBoolean,
		Description: "Allow unknown arguments and namespaces",
		Default:     false,
	}))
	return c
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return v
}

// Root returns the root namespace.
func (c *Config) Root() *Namespace { return c.root }

// AddNamespace adds a top-level namespace.
func (c *Config) AddNamespace(name string) (*Namespace, error) {
	return c.root.AddNamespace(name)
}

// Namespace returns the top-level namespace called name, or nil.
func (c *Config) Namespace(name string) *Namespace {
	return c.root.Namespace(name)
}

// AddOption adds a root option.
func (c *Config) AddOption(def OptionDefinition) (*Option, error) {
	return c.root.AddOption(def)
}

// AddOptions adds root options.
func (c *Config) AddOptions(defs []OptionDefinition) ([]*Option, error) {
	return c.root.AddOptions(defs)
}

// Option returns the option at a dotted path such as "server.port", or nil.
func (c *Config) Option(path string) *Option {
	parts := strings.Split(path, ".")
	ns := c.root
	for _, part := range parts[:len(parts)-1] {
		if ns = ns.Namespace(part); ns == nil {
			return nil
		}
	}
	return ns.Option(parts[len(parts)-1])
}

// LoadedFile returns the configuration file read by the last Init, if any.
func (c *Config) LoadedFile() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadedFile
}

// Validate checks values against the current tree.
func (c *Config) Validate(values map[string]any) error {
	allow, _ := c.allowUnknownArguments.Value().(bool)
	return c.validate(values, allow)
}

func (c *Config) validate(values map[string]any, allowAdditional bool) error {
	return ValidateConfig(values, ValidateConfigOptions{
		Groups:                    []Group{{Namespaces: []*Namespace{c.root}}},
		AllowAdditionalNamespaces: allowAdditional,
	})
}

// Init merges every source, validates the result and seeds the tree. Nothing
// is assigned when validation fails.
func (c *Config) Init() error {
	values, settings, err := c.load()
	if err != nil {
		return err
	}
	if err := c.validate(values, settings.allowUnknown); err != nil {
		return err
	}
	if err := c.root.Init(values); err != nil {
		return err
	}
	c.log.Debug("configuration initialized", "file", c.LoadedFile())
	return nil
}

// Load returns the merged configuration object without touching the tree.
func (c *Config) Load() (map[string]any, error) {
	values, _, err := c.load()
	return values, err
}

// Start switches the tree into emitting mode.
func (c *Config) Start() {
	c.root.Start()
}

// Set validates values against the tree and applies them level by level.
// Every namespace that changed emits its own change event.
func (c *Config) Set(values map[string]any) error {
	normalized, err := normalizeMap(values)
	if err != nil {
		return err
	}
	if err := c.Validate(normalized); err != nil {
		return err
	}
	return setTree(c.root, normalized)
}

func setTree(ns *Namespace, values map[string]any) error {
	if err := ns.Set(values); err != nil {
		return err
	}
	for _, child := range ns.Namespaces() {
		sub, ok := values[child.Name()].(map[string]any)
		if !ok {
			continue
		}
		if err := setTree(child, sub); err != nil {
			return err
		}
	}
	return nil
}

// Value returns the current values of the whole tree.
func (c *Config) Value() map[string]any {
	return c.root.Value()
}
