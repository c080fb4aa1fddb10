package config

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Namespace is a named node of the configuration tree. The root namespace
// has an empty name and represents the whole configuration object.
type Namespace struct {
	name    string
	parents []*Namespace

	mu         sync.RWMutex
	namespaces []*Namespace
	options    []*Option
	started    bool

	listeners listeners[[]*Option]
}

func newNamespace(name string, parents []*Namespace) *Namespace {
	return &Namespace{name: name, parents: parents}
}

// Name returns the namespace name. It is empty for the root.
func (n *Namespace) Name() string { return n.name }

// Parents returns the chain of ancestors, root first.
func (n *Namespace) Parents() []*Namespace { return slices.Clone(n.parents) }

// Path returns the dotted path of the namespace from the root.
func (n *Namespace) Path() string {
	parts := make([]string, 0, len(n.parents)+1)
	for _, p := range n.parents {
		if p.name != "" {
			parts = append(parts, p.name)
		}
	}
	if n.name != "" {
		parts = append(parts, n.name)
	}
	return strings.Join(parts, ".")
}

func (n *Namespace) childPath(name string) string {
	if path := n.Path(); path != "" {
		return path + "." + name
	}
	return name
}

// Namespaces returns the child namespaces in declaration order.
func (n *Namespace) Namespaces() []*Namespace {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.namespaces)
}

// Namespace returns the child namespace called name, or nil.
func (n *Namespace) Namespace(name string) *Namespace {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ns := range n.namespaces {
		if ns.name == name {
			return ns
		}
	}
	return nil
}

// Options returns the options of this level in declaration order.
func (n *Namespace) Options() []*Option {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.options)
}

// Option returns the option called name, or nil.
func (n *Namespace) Option(name string) *Option {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, opt := range n.options {
		if opt.name == name {
			return opt
		}
	}
	return nil
}

// Started reports whether Start was called.
func (n *Namespace) Started() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.started
}

// AddOption declares a new option on this level.
func (n *Namespace) AddOption(def OptionDefinition) (*Option, error) {
	if err := ValidateOption(def); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if err := checkOptionName(def.Name, n.options, n.namespaces); err != nil {
		return nil, err
	}
	opt, err := newOption(def, n.childPath(def.Name))
	if err != nil {
		return nil, err
	}
	if n.started {
		opt.Start()
	}
	n.options = append(n.options, opt)
	return opt, nil
}

// AddOptions declares several options, stopping at the first failure.
func (n *Namespace) AddOptions(defs []OptionDefinition) ([]*Option, error) {
	options := make([]*Option, 0, len(defs))
	for _, def := range defs {
		opt, err := n.AddOption(def)
		if err != nil {
			return options, err
		}
		options = append(options, opt)
	}
	return options, nil
}

// AddNamespace returns the child namespace called name, creating it when it
// does not exist yet.
func (n *Namespace) AddNamespace(name string) (*Namespace, error) {
	if name == "" {
		return nil, fmt.Errorf("add namespace: %w", ErrEmptyName)
	}
	if strings.Contains(name, ".") {
		return nil, fmt.Errorf("add namespace %q: name cannot contain dots", name)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	existing, err := checkNamespaceName(name, n.namespaces, n.options)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	parents := append(slices.Clone(n.parents), n)
	child := newNamespace(name, parents)
	child.started = n.started
	n.namespaces = append(n.namespaces, child)
	return child, nil
}

// Init seeds the subtree from cfg without emitting events. The namespace
// reads cfg[name] (the whole cfg for the root) and hands that slice down to
// its children. Every level is validated before any option is assigned.
func (n *Namespace) Init(cfg map[string]any) error {
	updates, err := n.resolveTree(cfg)
	if err != nil {
		return err
	}
	for _, u := range updates {
		u.option.commit(u.next)
	}
	return nil
}

func (n *Namespace) resolveTree(cfg map[string]any) ([]update, error) {
	slice, err := n.slice(cfg)
	if err != nil {
		return nil, err
	}
	updates, err := n.resolve(slice)
	if err != nil {
		return nil, err
	}
	for _, child := range n.Namespaces() {
		nested, err := child.resolveTree(slice)
		if err != nil {
			return nil, err
		}
		updates = append(updates, nested...)
	}
	return updates, nil
}

func (n *Namespace) slice(cfg map[string]any) (map[string]any, error) {
	if n.name == "" {
		return cfg, nil
	}
	raw, ok := cfg[n.name]
	if !ok || isNil(raw) {
		return map[string]any{}, nil
	}
	if !hasType(raw, TypeObject) {
		return nil, &OptionError{Option: n.Path(), Err: &TypeError{Value: raw, Expected: TypeObject}}
	}
	return normalizeMap(toStringMap(raw))
}

// Start switches the whole subtree into emitting mode.
func (n *Namespace) Start() {
	n.mu.Lock()
	n.started = true
	options := slices.Clone(n.options)
	children := slices.Clone(n.namespaces)
	n.mu.Unlock()

	for _, opt := range options {
		opt.Start()
	}
	for _, child := range children {
		child.Start()
	}
}

// Set applies cfg to the options of this level only; children are not
// visited. Once started, one change event carrying the changed options is
// emitted when at least one value differs from the previous one.
func (n *Namespace) Set(cfg map[string]any) error {
	changed, err := n.apply(cfg)
	if err != nil {
		return err
	}
	if len(changed) == 0 || !n.Started() {
		return nil
	}
	for _, opt := range changed {
		opt.notify()
	}
	n.listeners.emit(changed)
	return nil
}

// OnChange registers fn to be called with the changed options after every
// Set that changed at least one value once started.
func (n *Namespace) OnChange(fn func(changed []*Option)) func() {
	return n.listeners.add(fn)
}

type update struct {
	option *Option
	next   any
}

// resolve validates the values present in cfg for the options of this level
// without assigning them.
func (n *Namespace) resolve(cfg map[string]any) ([]update, error) {
	var updates []update
	for _, opt := range n.Options() {
		raw, ok := cfg[opt.name]
		if !ok || isNil(raw) {
			continue
		}
		next, err := opt.resolve(raw)
		if err != nil {
			return nil, &OptionError{Option: opt.path, Err: err}
		}
		updates = append(updates, update{option: opt, next: next})
	}
	return updates, nil
}

// apply validates every value present in cfg before assigning any of them
// and returns the options whose value changed.
func (n *Namespace) apply(cfg map[string]any) ([]*Option, error) {
	updates, err := n.resolve(cfg)
	if err != nil {
		return nil, err
	}

	var changed []*Option
	for _, u := range updates {
		if u.option.commit(u.next) {
			changed = append(changed, u.option)
		}
	}
	return changed, nil
}

// Value returns the current values of the subtree as a plain map.
func (n *Namespace) Value() map[string]any {
	out := map[string]any{}
	for _, opt := range n.Options() {
		out[opt.name] = opt.Value()
	}
	for _, child := range n.Namespaces() {
		out[child.name] = child.Value()
	}
	return out
}

func toStringMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	// other string keyed maps take the JSON roundtrip in normalizeMap
	normalized, err := normalize(v)
	if err != nil {
		return nil
	}
	m, _ := normalized.(map[string]any)
	return m
}
