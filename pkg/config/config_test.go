package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type componentOptions struct {
	alias              *Option
	numberDefaultZero  *Option
	booleanDefaultTrue *Option
	objectWithDefault  *Option
}

func newTestConfig(t *testing.T, dir string, programmatic map[string]any, args ...string) (*Config, componentOptions) {
	t.Helper()
	if programmatic == nil {
		programmatic = map[string]any{}
	}
	if _, ok := programmatic["config"]; !ok {
		programmatic["config"] = map[string]any{}
	}
	programmatic["config"].(map[string]any)["fileSearchPath"] = dir

	cfg := New(WithProgrammatic(programmatic), WithArgs(args))
	_, err := cfg.AddOption(OptionDefinition{Name: "log", Type: TypeString, Default: "info"})
	require.NoError(t, err)

	ns, err := cfg.AddNamespace("component")
	require.NoError(t, err)
	options, err := ns.AddOptions([]OptionDefinition{
		{Name: "alias", Type: TypeString, Default: "default"},
		{Name: "numberDefaultZero", Type: TypeNumber, Default: 0},
		{Name: "booleanDefaultTrue", Type: TypeBoolean, Default: true},
		{Name: "objectWithDefault", Type: TypeObject, Default: map[string]any{"foo": "var"}},
	})
	require.NoError(t, err)
	return cfg, componentOptions{options[0], options[1], options[2], options[3]}
}

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestConfigDefaults(t *testing.T) {
	cfg, opts := newTestConfig(t, t.TempDir(), nil)
	require.NoError(t, cfg.Init())

	assert.Equal(t, "default", opts.alias.Value())
	assert.Equal(t, float64(0), opts.numberDefaultZero.Value())
	assert.Equal(t, true, opts.booleanDefaultTrue.Value())
	assert.Equal(t, map[string]any{"foo": "var"}, opts.objectWithDefault.Value())
	assert.Empty(t, cfg.LoadedFile())
}

func TestConfigPrecedence(t *testing.T) {
	programmatic := map[string]any{"component": map[string]any{"alias": "programmatic"}}

	t.Run("programmatic", func(t *testing.T) {
		cfg, opts := newTestConfig(t, t.TempDir(), programmatic)
		require.NoError(t, cfg.Init())
		assert.Equal(t, "programmatic", opts.alias.Value())
	})

	t.Run("file over programmatic", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "mocks.config.yaml", "component:\n  alias: file\n")
		cfg, opts := newTestConfig(t, dir, programmatic)
		require.NoError(t, cfg.Init())
		assert.Equal(t, "file", opts.alias.Value())
		assert.Equal(t, filepath.Join(dir, "mocks.config.yaml"), cfg.LoadedFile())
	})

	t.Run("environment over file", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "mocks.config.yaml", "component:\n  alias: file\n")
		t.Setenv("MOCKS_COMPONENT_ALIAS", "environment")
		cfg, opts := newTestConfig(t, dir, programmatic)
		require.NoError(t, cfg.Init())
		assert.Equal(t, "environment", opts.alias.Value())
	})

	t.Run("arguments over environment", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "mocks.config.yaml", "component:\n  alias: file\n")
		t.Setenv("MOCKS_COMPONENT_ALIAS", "environment")
		cfg, opts := newTestConfig(t, dir, programmatic, "--component.alias=arguments")
		require.NoError(t, cfg.Init())
		assert.Equal(t, "arguments", opts.alias.Value())
	})
}

func TestConfigJSONFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "mocks.config.json", `{"log": "debug", "component": {"numberDefaultZero": 2}}`)
	cfg, opts := newTestConfig(t, dir, nil)

	require.NoError(t, cfg.Init())
	assert.Equal(t, float64(2), opts.numberDefaultZero.Value())
	assert.Equal(t, "debug", cfg.Option("log").Value())
}

func TestConfigObjectsMergeAcrossSources(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "mocks.config.yml", "component:\n  objectWithDefault:\n    file: true\n    list: [x]\n")
	t.Setenv("MOCKS_COMPONENT_OBJECT_WITH_DEFAULT", `{"environment": true, "list": ["a", "b"]}`)

	cfg, opts := newTestConfig(t, dir,
		map[string]any{"component": map[string]any{"objectWithDefault": map[string]any{"programmatic": true}}},
		`--component.objectWithDefault={"arguments": true}`,
	)
	require.NoError(t, cfg.Init())

	assert.Equal(t, map[string]any{
		"foo":          "var",
		"programmatic": true,
		"file":         true,
		"environment":  true,
		"arguments":    true,
		"list":         []any{"a", "b"},
	}, opts.objectWithDefault.Value())
}

func TestConfigArguments(t *testing.T) {
	cfg, opts := newTestConfig(t, t.TempDir(), nil,
		"--component.numberDefaultZero=5.34",
		"--no-component.booleanDefaultTrue",
		"--log", "silly",
		"positional",
	)
	require.NoError(t, cfg.Init())

	assert.Equal(t, 5.34, opts.numberDefaultZero.Value())
	assert.Equal(t, false, opts.booleanDefaultTrue.Value())
	assert.Equal(t, "silly", cfg.Option("log").Value())
}

func TestConfigEnvironmentTypes(t *testing.T) {
	t.Setenv("MOCKS_COMPONENT_NUMBER_DEFAULT_ZERO", "5.34")
	t.Setenv("MOCKS_COMPONENT_BOOLEAN_DEFAULT_TRUE", "false")
	t.Setenv("MOCKS_LOG", "verbose")

	cfg, opts := newTestConfig(t, t.TempDir(), nil)
	require.NoError(t, cfg.Init())

	assert.Equal(t, 5.34, opts.numberDefaultZero.Value())
	assert.Equal(t, false, opts.booleanDefaultTrue.Value())
	assert.Equal(t, "verbose", cfg.Option("log").Value())
}

func TestConfigInvalidEnvironmentValue(t *testing.T) {
	t.Setenv("MOCKS_COMPONENT_NUMBER_DEFAULT_ZERO", "five")
	t.Setenv("MOCKS_COMPONENT_ALIAS", "environment")

	cfg, opts := newTestConfig(t, t.TempDir(), nil)
	err := cfg.Init()

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "component.numberDefaultZero", schemaErr.Errors[0].Path)
	assert.Equal(t, "default", opts.alias.Value(), "nothing is applied when validation fails")
}

func TestConfigSourceSwitches(t *testing.T) {
	t.Run("read environment disabled", func(t *testing.T) {
		t.Setenv("MOCKS_COMPONENT_ALIAS", "environment")
		cfg, opts := newTestConfig(t, t.TempDir(), map[string]any{
			"config": map[string]any{"readEnvironment": false},
		})
		require.NoError(t, cfg.Init())
		assert.Equal(t, "default", opts.alias.Value())
	})

	t.Run("read arguments disabled", func(t *testing.T) {
		cfg, opts := newTestConfig(t, t.TempDir(), map[string]any{
			"config": map[string]any{"readArguments": false},
		}, "--component.alias=arguments")
		require.NoError(t, cfg.Init())
		assert.Equal(t, "default", opts.alias.Value())
	})

	t.Run("read file disabled from arguments", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "mocks.config.yaml", "component:\n  alias: file\n")
		cfg, opts := newTestConfig(t, dir, nil, "--no-config.readFile")
		require.NoError(t, cfg.Init())
		assert.Equal(t, "default", opts.alias.Value())
		assert.Empty(t, cfg.LoadedFile())
	})
}

func TestConfigUnknownArguments(t *testing.T) {
	cfg, _ := newTestConfig(t, t.TempDir(), nil, "--foo=bar")
	assert.Error(t, cfg.Init())

	cfg, opts := newTestConfig(t, t.TempDir(), nil, "--config.allowUnknownArguments", "--foo=bar", "--component.alias=known")
	require.NoError(t, cfg.Init())
	assert.Equal(t, "known", opts.alias.Value())
}

func TestArgEnabled(t *testing.T) {
	const name = "config.allowUnknownArguments"
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"--" + name}, true},
		{[]string{"--" + name + "=true"}, true},
		{[]string{"--" + name + "=1"}, true},
		{[]string{"--" + name + "=t"}, true},
		{[]string{"--" + name + "=TRUE"}, true},
		{[]string{"--" + name + "=false"}, false},
		{[]string{"--" + name + "=0"}, false},
		{[]string{"--" + name + "=nope"}, false},
		{[]string{"--", "--" + name}, false},
		{[]string{"--" + name + "Other"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, argEnabled(tt.args, name), "%v", tt.args)
	}

	cfg, opts := newTestConfig(t, t.TempDir(), nil, "--config.allowUnknownArguments=1", "--foo=bar", "--component.alias=known")
	require.NoError(t, cfg.Init())
	assert.Equal(t, "known", opts.alias.Value())
}

func TestConfigUnknownNamespaceInFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "mocks.config.yaml", "plugin:\n  foo: bar\n")

	cfg, _ := newTestConfig(t, dir, nil)
	var schemaErr *SchemaError
	assert.ErrorAs(t, cfg.Init(), &schemaErr)

	cfg, _ = newTestConfig(t, dir, map[string]any{"config": map[string]any{"allowUnknownArguments": true}})
	assert.NoError(t, cfg.Init())
}

func TestConfigSet(t *testing.T) {
	cfg, opts := newTestConfig(t, t.TempDir(), nil)
	require.NoError(t, cfg.Init())

	component := cfg.Namespace("component")
	var events [][]*Option
	component.OnChange(func(changed []*Option) { events = append(events, changed) })

	require.NoError(t, cfg.Set(map[string]any{"component": map[string]any{"alias": "before start"}}))
	assert.Empty(t, events)
	assert.Equal(t, "before start", opts.alias.Value())

	cfg.Start()
	require.NoError(t, cfg.Set(map[string]any{
		"component": map[string]any{"alias": "after start", "numberDefaultZero": 3},
	}))
	require.Len(t, events, 1)
	assert.Equal(t, []*Option{opts.alias, opts.numberDefaultZero}, events[0])

	err := cfg.Set(map[string]any{"component": map[string]any{"alias": "invalid", "numberDefaultZero": "3"}})
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "after start", opts.alias.Value())
	assert.Len(t, events, 1)
}

func TestConfigValue(t *testing.T) {
	cfg, _ := newTestConfig(t, t.TempDir(), nil)
	require.NoError(t, cfg.Init())

	value := cfg.Value()
	assert.Equal(t, "info", value["log"])
	assert.Equal(t, "default", value["component"].(map[string]any)["alias"])
	assert.Contains(t, value, "config")
}

func TestConfigOptionLookup(t *testing.T) {
	cfg, opts := newTestConfig(t, t.TempDir(), nil)

	assert.Same(t, opts.alias, cfg.Option("component.alias"))
	assert.NotNil(t, cfg.Option("config.readFile"))
	assert.Nil(t, cfg.Option("component.unknown"))
	assert.Nil(t, cfg.Option("unknown.alias"))
}

func TestArgsUsage(t *testing.T) {
	cfg, _ := newTestConfig(t, t.TempDir(), nil)
	usage := cfg.ArgsUsage()

	assert.Contains(t, usage, "--component.alias")
	assert.Contains(t, usage, "--no-component.booleanDefaultTrue")
	assert.Contains(t, usage, "--config.readFile")
}

func TestEnvName(t *testing.T) {
	tests := map[string]string{
		"log":                         "MOCKS_LOG",
		"component.objectWithDefault": "MOCKS_COMPONENT_OBJECT_WITH_DEFAULT",
		"config.readFile":             "MOCKS_CONFIG_READ_FILE",
		"plugins.adminApi.path":       "MOCKS_PLUGINS_ADMIN_API_PATH",
		"server.cors":                 "MOCKS_SERVER_CORS",
		"files.babelRegister":         "MOCKS_FILES_BABEL_REGISTER",
	}
	for path, want := range tests {
		assert.Equal(t, want, EnvName(DefaultEnvPrefix, path), path)
	}
}
