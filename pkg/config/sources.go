package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// mapProvider feeds an in-memory map to koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("map provider does not support ReadBytes")
}

func (m mapProvider) Read() (map[string]any, error) {
	if len(m) == 0 {
		return map[string]any{}, nil
	}
	return maps.Copy(m), nil
}

// loadSettings are the "config" namespace values in effect while loading.
type loadSettings struct {
	readFile     bool
	searchPath   string
	allowUnknown bool
}

// load merges programmatic, file, environment and argument values, in
// increasing order of precedence.
func (c *Config) load() (map[string]any, loadSettings, error) {
	programmatic, err := normalizeMap(c.programmatic)
	if err != nil {
		return nil, loadSettings{}, fmt.Errorf("programmatic configuration: %w", err)
	}

	// whether to read env and args is decided by the programmatic source
	// alone, the rest of the settings by every non-file source
	pre := koanf.New(".")
	if err := pre.Load(mapProvider(programmatic), nil); err != nil {
		return nil, loadSettings{}, err
	}

	var envValues, argValues map[string]any
	if c.boolSetting(pre, c.readEnvironment) {
		if envValues, err = c.environment(); err != nil {
			return nil, loadSettings{}, err
		}
		if err := pre.Load(mapProvider(envValues), nil); err != nil {
			return nil, loadSettings{}, err
		}
	}
	if c.boolSetting(pre, c.readArguments) {
		allowUnknown := c.boolSetting(pre, c.allowUnknownArguments) || argEnabled(c.args, c.allowUnknownArguments.Path())
		if argValues, err = c.arguments(allowUnknown); err != nil {
			return nil, loadSettings{}, err
		}
		if err := pre.Load(mapProvider(argValues), nil); err != nil {
			return nil, loadSettings{}, err
		}
	}

	settings := loadSettings{
		readFile:     c.boolSetting(pre, c.readFile),
		searchPath:   c.stringSetting(pre, c.fileSearchPath),
		allowUnknown: c.boolSetting(pre, c.allowUnknownArguments),
	}

	k := koanf.New(".")
	if err := k.Load(mapProvider(programmatic), nil); err != nil {
		return nil, settings, err
	}
	loaded := ""
	if settings.readFile {
		if path := c.findFile(settings.searchPath); path != "" {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, settings, fmt.Errorf("read configuration file %s: %w", path, err)
			}
			loaded = path
			c.log.Debug("configuration file loaded", "path", path)
		}
	}
	c.mu.Lock()
	c.loadedFile = loaded
	c.mu.Unlock()

	for _, values := range []map[string]any{envValues, argValues} {
		if err := k.Load(mapProvider(values), nil); err != nil {
			return nil, settings, err
		}
	}

	merged, err := normalizeMap(k.Raw())
	if err != nil {
		return nil, settings, err
	}
	return merged, settings, nil
}

func (c *Config) boolSetting(k *koanf.Koanf, opt *Option) bool {
	if v, ok := k.Get(opt.Path()).(bool); ok {
		return v
	}
	v, _ := opt.Value().(bool)
	return v
}

func (c *Config) stringSetting(k *koanf.Koanf, opt *Option) string {
	if v, ok := k.Get(opt.Path()).(string); ok {
		return v
	}
	v, _ := opt.Value().(string)
	return v
}

func (c *Config) findFile(dir string) string {
	for _, name := range c.fileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// environment reads one variable per declared option, named after its path:
// MOCKS_COMPONENT_OBJECT_WITH_DEFAULT for component.objectWithDefault.
func (c *Config) environment() (map[string]any, error) {
	byName := map[string]*Option{}
	walkOptions(c.root, func(opt *Option) {
		byName[EnvName(c.envPrefix, opt.Path())] = opt
	})

	k := koanf.New(".")
	provider := env.ProviderWithValue(c.envPrefix, ".", func(key, value string) (string, any) {
		opt, ok := byName[key]
		if !ok {
			return "", nil
		}
		return opt.Path(), parseValue(value, opt.Type())
	})
	if err := k.Load(provider, nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return k.Raw(), nil
}

// EnvName returns the environment variable read for the option at path.
func EnvName(prefix, path string) string {
	parts := strings.Split(path, ".")
	for i, part := range parts {
		parts[i] = screamingSnake(part)
	}
	return prefix + strings.Join(parts, "_")
}

func screamingSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if r == '-' || r == ' ' {
			b.WriteByte('_')
			continue
		}
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// parseValue converts a raw string to the option type. Values that do not
// parse are kept as strings and rejected later by validation.
func parseValue(raw string, t Type) any {
	switch t {
	case TypeNumber:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case TypeBoolean:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case TypeObject:
		var m map[string]any
		if err := json.Unmarshal([]byte(raw), &m); err == nil && m != nil {
			return m
		}
	}
	return raw
}

const negatePrefix = "no-"

// flagSet builds one flag per declared option. Booleans also get a negated
// --no-<path> flag.
func (c *Config) flagSet(allowUnknown bool) (*pflag.FlagSet, map[string]*Option) {
	fs := pflag.NewFlagSet("mocks-server", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	fs.ParseErrorsAllowlist.UnknownFlags = allowUnknown

	flags := map[string]*Option{}
	walkOptions(c.root, func(opt *Option) {
		name := opt.Path()
		flags[name] = opt
		switch opt.Type() {
		case TypeBoolean:
			def, _ := opt.Default().(bool)
			fs.Bool(name, def, opt.Description())
			fs.Bool(negatePrefix+name, false, "Disable "+name)
			flags[negatePrefix+name] = opt
		case TypeNumber:
			def, _ := opt.Default().(float64)
			fs.Float64(name, def, opt.Description())
		case TypeObject:
			def := ""
			if d := opt.Default(); d != nil {
				if data, err := json.Marshal(d); err == nil {
					def = string(data)
				}
			}
			fs.String(name, def, opt.Description())
		default:
			def, _ := opt.Default().(string)
			fs.String(name, def, opt.Description())
		}
	})
	return fs, flags
}

// arguments parses the command line. Only flags actually present are
// returned.
func (c *Config) arguments(allowUnknown bool) (map[string]any, error) {
	fs, flags := c.flagSet(allowUnknown)
	if err := fs.Parse(c.args); err != nil {
		return nil, fmt.Errorf("parse arguments: %w", err)
	}

	values := map[string]any{}
	fs.Visit(func(f *pflag.Flag) {
		opt := flags[f.Name]
		raw := f.Value.String()
		if f.Name != opt.Path() {
			b, _ := strconv.ParseBool(raw)
			values[opt.Path()] = !b
			return
		}
		values[opt.Path()] = parseValue(raw, opt.Type())
	})
	return maps.Unflatten(values, "."), nil
}

// ArgsUsage describes every command line flag generated from the tree.
func (c *Config) ArgsUsage() string {
	fs, _ := c.flagSet(true)
	return fs.FlagUsages()
}

func argEnabled(args []string, name string) bool {
	flag := "--" + name
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == flag {
			return true
		}
		if raw, ok := strings.CutPrefix(arg, flag+"="); ok {
			if b, err := strconv.ParseBool(raw); err == nil && b {
				return true
			}
		}
	}
	return false
}

func walkOptions(ns *Namespace, fn func(*Option)) {
	for _, opt := range ns.Options() {
		fn(opt)
	}
	for _, child := range ns.Namespaces() {
		walkOptions(child, fn)
	}
}
