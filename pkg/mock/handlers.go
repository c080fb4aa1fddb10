package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mocks-server/mocks-server/internal/schema"
)

// VariantHandler builds the http.Handler answering the variants of its type.
type VariantHandler struct {
	// ID is the variant type, e.g. "json".
	ID string

	// OptionsSchema validates the variant options. Nil accepts anything.
	OptionsSchema map[string]any

	// New builds the handler from already validated options.
	New func(options map[string]any) (http.Handler, error)
}

type registeredHandler struct {
	VariantHandler
	schema *jsonschema.Schema
}

// Handlers is the registry of variant handlers.
type Handlers struct {
	mu       sync.RWMutex
	handlers map[string]*registeredHandler
	order    []string
}

// NewHandlers creates a registry holding the built-in handlers.
func NewHandlers() *Handlers {
	h := &Handlers{handlers: make(map[string]*registeredHandler)}
	for _, vh := range builtinHandlers() {
		if err := h.Register(vh); err != nil {
			panic(err)
		}
	}
	return h
}

// Register adds a variant handler.
func (h *Handlers) Register(vh VariantHandler) error {
	if vh.ID == "" || vh.New == nil {
		return fmt.Errorf("variant handler requires an id and a constructor")
	}
	reg := &registeredHandler{VariantHandler: vh}
	if vh.OptionsSchema != nil {
		compiled, err := schema.Compile("handler-"+vh.ID+".json", vh.OptionsSchema)
		if err != nil {
			return err
		}
		reg.schema = compiled
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.handlers[vh.ID]; ok {
		return fmt.Errorf("%w: variant handler %q", ErrDuplicateID, vh.ID)
	}
	h.handlers[vh.ID] = reg
	h.order = append(h.order, vh.ID)
	return nil
}

// IDs returns the registered handler ids in registration order.
func (h *Handlers) IDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.order)
}

// build validates the options of a variant and creates its handler.
func (h *Handlers) build(variantID, variantType string, options map[string]any) (http.Handler, error) {
	h.mu.RLock()
	reg, ok := h.handlers[variantType]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("variant %q: %w %q", variantID, ErrUnknownHandler, variantType)
	}
	if options == nil {
		options = map[string]any{}
	}
	if reg.schema != nil {
		if violations := schema.Validate(reg.schema, options); len(violations) > 0 {
			return nil, newValidationError("variant", variantID, prefixViolations("options", violations))
		}
	}
	handler, err := reg.New(options)
	if err != nil {
		return nil, fmt.Errorf("variant %q: %w", variantID, err)
	}
	return handler, nil
}

func prefixViolations(prefix string, violations []schema.Violation) []schema.Violation {
	out := make([]schema.Violation, len(violations))
	for i, v := range violations {
		v.Path = joinPath(prefix, v.Path)
		out[i] = v
	}
	return out
}

func joinPath(prefix, path string) string {
	if path == "" {
		return prefix
	}
	return prefix + "." + path
}

// decodeOptions converts validated options into a typed struct.
func decodeOptions(options map[string]any, v any) error {
	data, err := json.Marshal(options)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
