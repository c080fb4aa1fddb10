package mock

import (
	"fmt"
	"net/http"
	"slices"
)

// Route is a loaded route.
type Route struct {
	ID       string
	URL      string
	Methods  []string
	Delay    *float64
	Variants []*Variant
}

// Variant is a loaded route variant.
type Variant struct {
	ID        string // "<route>:<variant>"
	VariantID string
	Type      string
	Delay     *float64
	Disabled  bool
	Options   map[string]any
	Route     *Route

	handler http.Handler
}

// ServeHTTP answers with the handler built for the variant.
func (v *Variant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	v.handler.ServeHTTP(w, r)
}

// RouteView is the public representation of a route.
type RouteView struct {
	ID       string   `json:"id"`
	URL      string   `json:"url"`
	Method   Methods  `json:"method"`
	Delay    *float64 `json:"delay"`
	Variants []string `json:"variants"`
}

// VariantView is the public representation of a route variant.
type VariantView struct {
	ID       string         `json:"id"`
	Route    string         `json:"route"`
	Type     string         `json:"type"`
	Disabled bool           `json:"disabled"`
	Delay    *float64       `json:"delay"`
	Options  map[string]any `json:"options,omitempty"`
}

func (r *Route) view() RouteView {
	variants := make([]string, len(r.Variants))
	for i, v := range r.Variants {
		variants[i] = v.ID
	}
	return RouteView{
		ID:       r.ID,
		URL:      r.URL,
		Method:   slices.Clone(r.Methods),
		Delay:    r.Delay,
		Variants: variants,
	}
}

func (v *Variant) view() VariantView {
	return VariantView{
		ID:       v.ID,
		Route:    v.Route.ID,
		Type:     v.Type,
		Disabled: v.Disabled,
		Delay:    v.Delay,
		Options:  v.Options,
	}
}

// compileRoutes validates the definitions and builds their variants.
// Invalid routes and variants are skipped and reported.
func compileRoutes(defs []RouteDefinition, handlers *Handlers) ([]*Route, []error) {
	var (
		routes []*Route
		errs   []error
		seen   = make(map[string]bool)
	)
	for _, def := range defs {
		if err := ValidateRoute(def); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[def.ID] {
			errs = append(errs, fmt.Errorf("%w: route %q is defined more than once", ErrDuplicateID, def.ID))
			continue
		}
		seen[def.ID] = true

		route := &Route{
			ID:      def.ID,
			URL:     def.URL,
			Methods: slices.Clone(def.Method),
			Delay:   def.Delay,
		}
		variantSeen := make(map[string]bool)
		for _, vdef := range def.Variants {
			id := VariantID(def.ID, vdef.ID)
			if variantSeen[vdef.ID] {
				errs = append(errs, fmt.Errorf("%w: variant %q is defined more than once", ErrDuplicateID, id))
				continue
			}
			variantSeen[vdef.ID] = true

			variant := &Variant{
				ID:        id,
				VariantID: vdef.ID,
				Type:      vdef.Type,
				Delay:     vdef.Delay,
				Disabled:  vdef.Disabled,
				Options:   vdef.Options,
				Route:     route,
			}
			if !vdef.Disabled {
				handler, err := handlers.build(id, vdef.Type, vdef.Options)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				variant.handler = handler
			}
			route.Variants = append(route.Variants, variant)
		}
		routes = append(routes, route)
	}
	return routes, errs
}
