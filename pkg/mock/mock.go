package mock

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/mocks-server/mocks-server/internal/matching"
	"github.com/mocks-server/mocks-server/pkg/httputil"
	"github.com/mocks-server/mocks-server/pkg/logging"
)

// Mock serves the active route variants: the variants of the selected
// collection, overridden by the custom route variants.
type Mock struct {
	handlers *Handlers
	log      *slog.Logger

	mu             sync.RWMutex
	routeDefs      []RouteDefinition
	collectionDefs []CollectionDefinition
	routes         []*Route
	variants       map[string]*Variant
	collections    []*Collection
	selected       string
	current        *Collection
	custom         []string
	active         []*Variant
	delay          float64

	listenersMu sync.Mutex
	listeners   map[uint64]func()
	nextID      uint64
}

// Option configures a Mock.
type Option func(*Mock)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Mock) {
		if log != nil {
			m.log = log
		}
	}
}

// WithHandlers sets the variant handlers registry.
func WithHandlers(h *Handlers) Option {
	return func(m *Mock) {
		if h != nil {
			m.handlers = h
		}
	}
}

// New creates an empty Mock.
func New(opts ...Option) *Mock {
	m := &Mock{
		handlers:  NewHandlers(),
		log:       logging.Nop(),
		variants:  make(map[string]*Variant),
		listeners: make(map[uint64]func()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handlers returns the variant handlers registry.
func (m *Mock) Handlers() *Handlers { return m.handlers }

// OnChange registers fn to be called every time routes, collections or the
// active variants change. The returned function unsubscribes.
func (m *Mock) OnChange(fn func()) func() {
	m.listenersMu.Lock()
	m.nextID++
	id := m.nextID
	m.listeners[id] = fn
	m.listenersMu.Unlock()

	return func() {
		m.listenersMu.Lock()
		delete(m.listeners, id)
		m.listenersMu.Unlock()
	}
}

func (m *Mock) emitChange() {
	m.listenersMu.Lock()
	ids := make([]uint64, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.listeners[id])
	}
	m.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Load replaces routes and collections. Invalid items are skipped and
// returned, the rest is loaded.
func (m *Mock) Load(routes []RouteDefinition, collections []CollectionDefinition) []error {
	m.mu.Lock()
	m.routeDefs = slices.Clone(routes)
	m.collectionDefs = slices.Clone(collections)
	errs := m.rebuild()
	m.mu.Unlock()

	m.report(errs)
	m.emitChange()
	return errs
}

// LoadRoutes replaces the routes, keeping the collections.
func (m *Mock) LoadRoutes(routes []RouteDefinition) []error {
	m.mu.RLock()
	collections := m.collectionDefs
	m.mu.RUnlock()
	return m.Load(routes, collections)
}

// LoadCollections replaces the collections, keeping the routes.
func (m *Mock) LoadCollections(collections []CollectionDefinition) []error {
	m.mu.RLock()
	routes := m.routeDefs
	m.mu.RUnlock()
	return m.Load(routes, collections)
}

func (m *Mock) report(errs []error) {
	for _, err := range errs {
		m.log.Warn("mock definition skipped", "error", err)
	}
}

// rebuild compiles the definitions and reactivates the selection. Caller
// holds the lock.
func (m *Mock) rebuild() []error {
	routes, errs := compileRoutes(m.routeDefs, m.handlers)
	variants := make(map[string]*Variant)
	for _, route := range routes {
		for _, v := range route.Variants {
			variants[v.ID] = v
		}
	}
	collections, collectionErrs := resolveCollections(m.collectionDefs, variants)
	errs = append(errs, collectionErrs...)

	m.routes = routes
	m.variants = variants
	m.collections = collections

	// custom variants that no longer exist are dropped
	m.custom = slices.DeleteFunc(m.custom, func(id string) bool {
		_, ok := variants[id]
		return !ok
	})
	m.selectCollection()
	m.log.Info("mock loaded", "routes", len(routes), "variants", len(variants), "collections", len(collections))
	return errs
}

// SelectCollection selects the collection to serve. An empty or unknown id
// selects the first collection.
func (m *Mock) SelectCollection(id string) {
	m.mu.Lock()
	m.selected = id
	m.selectCollection()
	m.mu.Unlock()
	m.emitChange()
}

func (m *Mock) selectCollection() {
	m.current = nil
	for _, c := range m.collections {
		if c.ID == m.selected {
			m.current = c
			break
		}
	}
	if m.current == nil && len(m.collections) > 0 {
		if m.selected != "" {
			m.log.Warn("collection not found, using the first one", "collection", m.selected, "first", m.collections[0].ID)
		}
		m.current = m.collections[0]
	}
	if m.current == nil && m.selected != "" {
		m.log.Warn("no collections available", "collection", m.selected)
	}
	m.activate()
}

// activate computes the active variants. Caller holds the lock.
func (m *Mock) activate() {
	var ids []string
	if m.current != nil {
		ids = slices.Clone(m.current.Routes)
	}
	for _, customID := range m.custom {
		custom := m.variants[customID]
		replaced := false
		for i, id := range ids {
			if v := m.variants[id]; v != nil && v.Route.ID == custom.Route.ID {
				ids[i] = customID
				replaced = true
				break
			}
		}
		if !replaced {
			ids = append(ids, customID)
		}
	}

	active := make([]*Variant, 0, len(ids))
	for _, id := range ids {
		if v, ok := m.variants[id]; ok {
			active = append(active, v)
		}
	}
	m.active = active
}

// CurrentCollection returns the id of the collection being served.
func (m *Mock) CurrentCollection() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.ID
}

// SetDelay sets the global delay, in milliseconds.
func (m *Mock) SetDelay(ms float64) {
	m.mu.Lock()
	m.delay = ms
	m.mu.Unlock()
}

// UseRouteVariant serves the given variant for its route whatever the
// selected collection.
func (m *Mock) UseRouteVariant(id string) error {
	m.mu.Lock()
	variant, ok := m.variants[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("route variant %q: %w", id, ErrNotFound)
	}
	m.custom = slices.DeleteFunc(m.custom, func(existing string) bool {
		return m.variants[existing].Route.ID == variant.Route.ID
	})
	m.custom = append(m.custom, id)
	m.activate()
	m.mu.Unlock()

	m.emitChange()
	return nil
}

// RestoreRouteVariants removes every custom route variant.
func (m *Mock) RestoreRouteVariants() {
	m.mu.Lock()
	m.custom = nil
	m.activate()
	m.mu.Unlock()
	m.emitChange()
}

// CustomRouteVariants returns the ids of the custom route variants in use.
func (m *Mock) CustomRouteVariants() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.custom)
}

// Routes returns every loaded route.
func (m *Mock) Routes() []RouteView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RouteView, len(m.routes))
	for i, r := range m.routes {
		out[i] = r.view()
	}
	return out
}

// Route returns the route with the given id.
func (m *Mock) Route(id string) (RouteView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.routes {
		if r.ID == id {
			return r.view(), true
		}
	}
	return RouteView{}, false
}

// Variants returns every loaded route variant.
func (m *Mock) Variants() []VariantView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []VariantView
	for _, r := range m.routes {
		for _, v := range r.Variants {
			out = append(out, v.view())
		}
	}
	return out
}

// Variant returns the route variant with the given id.
func (m *Mock) Variant(id string) (VariantView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.variants[id]; ok {
		return v.view(), true
	}
	return VariantView{}, false
}

// Collections returns every loaded collection.
func (m *Mock) Collections() []CollectionView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CollectionView, len(m.collections))
	for i, c := range m.collections {
		out[i] = c.view()
	}
	return out
}

// Collection returns the collection with the given id.
func (m *Mock) Collection(id string) (CollectionView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.collections {
		if c.ID == id {
			return c.view(), true
		}
	}
	return CollectionView{}, false
}

// Match is an active variant selected for a request.
type Match struct {
	Variant *Variant
	Params  map[string]string
	Delay   time.Duration
}

// ServeHTTP exposes the path parameters through r.PathValue and answers with
// the variant.
func (mt *Match) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for name, value := range mt.Params {
		r.SetPathValue(name, value)
	}
	mt.Variant.ServeHTTP(w, r)
}

// Match returns the active variant answering r. The highest method and path
// score wins; on ties the first declared wins. Disabled variants never match.
func (m *Mock) Match(r *http.Request) (*Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		best      *Variant
		bestScore int
		params    map[string]string
	)
	for _, v := range m.active {
		if v.Disabled {
			continue
		}
		methodScore := matching.MatchMethod(v.Route.Methods, r.Method)
		if methodScore == 0 {
			continue
		}
		pathScore, p := matching.MatchPath(v.Route.URL, r.URL.Path)
		if pathScore == 0 {
			continue
		}
		if score := pathScore + methodScore; score > bestScore {
			best, bestScore, params = v, score, p
		}
	}
	if best == nil {
		return nil, false
	}
	return &Match{Variant: best, Params: params, Delay: m.delayOf(best)}, true
}

// delayOf applies the precedence variant, route, global. Caller holds the
// lock.
func (m *Mock) delayOf(v *Variant) time.Duration {
	ms := m.delay
	switch {
	case v.Delay != nil:
		ms = *v.Delay
	case v.Route.Delay != nil:
		ms = *v.Route.Delay
	}
	return time.Duration(ms * float64(time.Millisecond))
}

// ServeHTTP serves r with the matching active variant, or 404.
func (m *Mock) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	match, ok := m.Match(r)
	if !ok {
		httputil.WriteNotFound(w, "not_found", fmt.Sprintf("no route matches %s %s", r.Method, r.URL.Path))
		return
	}
	if err := Wait(r.Context(), match.Delay); err != nil {
		return
	}
	match.ServeHTTP(w, r)
}

// Wait sleeps for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
