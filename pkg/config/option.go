package config

import (
	"fmt"
	"sync"
)

// Option is a typed, named leaf of the configuration tree.
type Option struct {
	name        string
	path        string
	description string
	typ         Type
	def         any

	mu         sync.RWMutex
	value      any
	hasBeenSet bool
	started    bool

	listeners listeners[any]
}

func newOption(def OptionDefinition, path string) (*Option, error) {
	defValue, err := normalize(def.Default)
	if err != nil {
		return nil, &DeclarationError{Name: def.Name, Errors: []FieldError{{Path: "default", Message: err.Error()}}}
	}
	return &Option{
		name:        def.Name,
		path:        path,
		description: def.Description,
		typ:         def.Type,
		def:         defValue,
		value:       copyValue(defValue),
	}, nil
}

// Name returns the option name.
func (o *Option) Name() string { return o.name }

// Path returns the dotted path of the option from the root.
func (o *Option) Path() string { return o.path }

// Type returns the declared type.
func (o *Option) Type() Type { return o.typ }

// Description returns the declared description.
func (o *Option) Description() string { return o.description }

// Default returns a copy of the declared default, nil when none was declared.
func (o *Option) Default() any { return copyValue(o.def) }

// Value returns the current value. Objects are returned as a deep copy.
func (o *Option) Value() any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return copyValue(o.value)
}

// HasBeenSet reports whether any source assigned a value.
func (o *Option) HasBeenSet() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.hasBeenSet
}

// Started reports whether the option emits change events.
func (o *Option) Started() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.started
}

// Start switches the option into emitting mode.
func (o *Option) Start() {
	o.mu.Lock()
	o.started = true
	o.mu.Unlock()
}

// OnChange registers fn to be called with the new value every time the value
// changes after Start. The returned function unsubscribes.
func (o *Option) OnChange(fn func(value any)) func() {
	return o.listeners.add(fn)
}

// Set assigns value. Objects are deep merged onto the current value.
func (o *Option) Set(value any) error {
	next, err := o.resolve(value)
	if err != nil {
		return &OptionError{Option: o.path, Err: err}
	}
	if o.commit(next) {
		o.notify()
	}
	return nil
}

// Merge deep merges value onto the current value of an object option.
func (o *Option) Merge(value any) error {
	if o.typ != TypeObject {
		return &OptionError{Option: o.path, Err: fmt.Errorf("merge is only supported by %s options", TypeObject)}
	}
	return o.Set(value)
}

// resolve validates value and computes the value the option would hold
// after assigning it, without mutating the option.
func (o *Option) resolve(value any) (any, error) {
	if err := ValidateValueType(value, o.typ); err != nil {
		return nil, err
	}
	next, err := normalize(value)
	if err != nil {
		return nil, err
	}
	if o.typ != TypeObject {
		return next, nil
	}
	patch, _ := next.(map[string]any)
	o.mu.RLock()
	current, _ := o.value.(map[string]any)
	merged := mergeObject(current, patch)
	o.mu.RUnlock()
	return merged, nil
}

// commit stores an already resolved value and reports whether it changed.
func (o *Option) commit(next any) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev := o.value
	o.value = next
	o.hasBeenSet = true
	return !equalValues(prev, next)
}

func (o *Option) notify() {
	if !o.Started() {
		return
	}
	o.listeners.emit(o.Value())
}
