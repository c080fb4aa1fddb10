package mock

import (
	"fmt"
	"slices"
	"strings"
)

// Collection is a loaded collection with its inheritance resolved.
type Collection struct {
	ID            string
	From          string
	DefinedRoutes []string // as declared
	Routes        []string // resolved variant ids, one per route
}

// CollectionView is the public representation of a collection.
type CollectionView struct {
	ID            string   `json:"id"`
	From          string   `json:"from"`
	DefinedRoutes []string `json:"definedRoutes"`
	Routes        []string `json:"routes"`
}

func (c *Collection) view() CollectionView {
	return CollectionView{
		ID:            c.ID,
		From:          c.From,
		DefinedRoutes: slices.Clone(c.DefinedRoutes),
		Routes:        slices.Clone(c.Routes),
	}
}

type collectionResolver struct {
	defs     map[string]CollectionDefinition
	variants map[string]*Variant
	resolved map[string][]string
	failed   map[string]bool
	errs     []error
}

// resolveCollections validates the definitions and resolves "from"
// inheritance. Children override the parent variant of the same route.
func resolveCollections(defs []CollectionDefinition, variants map[string]*Variant) ([]*Collection, []error) {
	r := &collectionResolver{
		defs:     make(map[string]CollectionDefinition),
		variants: variants,
		resolved: make(map[string][]string),
		failed:   make(map[string]bool),
	}

	var ordered []CollectionDefinition
	for _, def := range defs {
		if err := ValidateCollection(def); err != nil {
			r.errs = append(r.errs, err)
			continue
		}
		if _, ok := r.defs[def.ID]; ok {
			r.errs = append(r.errs, fmt.Errorf("%w: collection %q is defined more than once", ErrDuplicateID, def.ID))
			continue
		}
		r.defs[def.ID] = def
		ordered = append(ordered, def)
	}

	var collections []*Collection
	for _, def := range ordered {
		routes, ok := r.resolve(def.ID, nil)
		if !ok {
			continue
		}
		collections = append(collections, &Collection{
			ID:            def.ID,
			From:          def.From,
			DefinedRoutes: slices.Clone(def.Routes),
			Routes:        slices.Clone(routes),
		})
	}
	return collections, r.errs
}

func (r *collectionResolver) resolve(id string, chain []string) ([]string, bool) {
	if routes, ok := r.resolved[id]; ok {
		return routes, true
	}
	if r.failed[id] {
		return nil, false
	}
	if slices.Contains(chain, id) {
		r.errs = append(r.errs, fmt.Errorf("%w: %s", ErrCircularCollections, strings.Join(append(chain, id), " -> ")))
		for _, member := range chain[slices.Index(chain, id):] {
			r.failed[member] = true
		}
		return nil, false
	}

	def := r.defs[id]
	var routes []string
	if def.From != "" {
		if _, ok := r.defs[def.From]; !ok {
			r.errs = append(r.errs, fmt.Errorf("collection %q: %w: parent collection %q", id, ErrNotFound, def.From))
		} else {
			parent, ok := r.resolve(def.From, append(slices.Clone(chain), id))
			if !ok {
				r.failed[id] = true
				return nil, false
			}
			routes = slices.Clone(parent)
		}
	}

	for _, variantID := range def.Routes {
		variant, ok := r.variants[variantID]
		if !ok {
			r.errs = append(r.errs, fmt.Errorf("collection %q: %w: route variant %q", id, ErrNotFound, variantID))
			continue
		}
		routes = r.override(routes, variant)
	}
	r.resolved[id] = routes
	return routes, true
}

// override replaces the variant of the same route, or appends.
func (r *collectionResolver) override(routes []string, variant *Variant) []string {
	for i, existing := range routes {
		if v, ok := r.variants[existing]; ok && v.Route.ID == variant.Route.ID {
			routes[i] = variant.ID
			return routes
		}
	}
	return append(routes, variant.ID)
}
