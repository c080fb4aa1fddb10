package config

import "fmt"

// checkOptionName rejects name when an option or a namespace of the same
// level already uses it.
func checkOptionName(name string, options []*Option, namespaces []*Namespace) error {
	for _, opt := range options {
		if opt.name == name {
			return fmt.Errorf("%w: option %q already exists", ErrNameCollision, name)
		}
	}
	for _, ns := range namespaces {
		if ns.name == name {
			return fmt.Errorf("%w: %q is already used by a namespace", ErrNameCollision, name)
		}
	}
	return nil
}

// checkNamespaceName returns the existing namespace called name, or an error
// when an option of the same level uses it.
func checkNamespaceName(name string, namespaces []*Namespace, options []*Option) (*Namespace, error) {
	for _, ns := range namespaces {
		if ns.name == name {
			return ns, nil
		}
	}
	for _, opt := range options {
		if opt.name == name {
			return nil, fmt.Errorf("%w: %q is already used by an option", ErrNameCollision, name)
		}
	}
	return nil, nil
}
