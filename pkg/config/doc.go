// Package config implements the hierarchical configuration tree used by
// mocks-server and its plugins.
//
// The tree is made of namespaces holding typed options. Components declare
// the options they need on their own namespace, the whole tree is seeded once
// with Init, switched into emitting mode with Start, and later updates applied
// with Set raise one batched change notification per namespace.
//
// Values reach the tree from four sources, merged from lowest to highest
// precedence:
//
//   - programmatic values passed to New
//   - the configuration file (mocks.config.yaml, .yml or .json)
//   - environment variables (MOCKS_<NAMESPACE>_<OPTION>)
//   - command line arguments (--namespace.option=value)
//
// Object options merge across sources and across updates. Arrays and scalars
// replace.
//
// # Usage
//
//	cfg := config.New(config.WithArgs(os.Args[1:]))
//	ns, _ := cfg.AddNamespace("server")
//	port, _ := ns.AddOption(config.OptionDefinition{
//	    Name:    "port",
//	    Type:    config.TypeNumber,
//	    Default: 3100,
//	})
//	if err := cfg.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Start()
//	port.OnChange(func(v any) { restart(v.(float64)) })
package config
