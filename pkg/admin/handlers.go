package admin

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"

	"github.com/mocks-server/mocks-server/pkg/config"
	"github.com/mocks-server/mocks-server/pkg/core"
	"github.com/mocks-server/mocks-server/pkg/httputil"
	"github.com/mocks-server/mocks-server/pkg/logging"
	"github.com/mocks-server/mocks-server/pkg/mock"
)

// AboutResponse is returned by GET /about.
type AboutResponse struct {
	Versions map[string]string `json:"versions"`
}

// CustomVariantRequest is the body of POST /mock/custom-route-variants.
type CustomVariantRequest struct {
	ID string `json:"id"`
}

// handleAbout handles GET /about.
func (a *API) handleAbout(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, AboutResponse{
		Versions: map[string]string{
			"core": core.Version(),
			"go":   runtime.Version(),
		},
	})
}

// handleGetConfig handles GET /config.
func (a *API) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, a.core.Config().Value())
}

// handlePatchConfig handles PATCH /config. The body is validated as a whole
// before any option is changed.
func (a *API) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := httputil.DecodeJSON(r, &values); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", err.Error())
		return
	}

	if err := a.core.Config().Set(values); err != nil {
		var schemaErr *config.SchemaError
		if errors.As(err, &schemaErr) {
			httputil.WriteErrorWithDetails(w, http.StatusBadRequest, "invalid_config", "Invalid configuration", schemaErr.Errors)
			return
		}
		httputil.WriteBadRequest(w, "invalid_config", err.Error())
		return
	}
	a.log.Debug("configuration changed through admin api")
	httputil.WriteNoContent(w)
}

// handleListCollections handles GET /mock/collections.
func (a *API) handleListCollections(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, nonNil(a.core.Mock().Collections()))
}

// handleGetCollection handles GET /mock/collections/{id}.
func (a *API) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	collection, ok := a.core.Mock().Collection(id)
	if !ok {
		writeNotFound(w, "collection", id)
		return
	}
	httputil.WriteOK(w, collection)
}

// handleListRoutes handles GET /mock/routes.
func (a *API) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, nonNil(a.core.Mock().Routes()))
}

// handleGetRoute handles GET /mock/routes/{id}.
func (a *API) handleGetRoute(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	route, ok := a.core.Mock().Route(id)
	if !ok {
		writeNotFound(w, "route", id)
		return
	}
	httputil.WriteOK(w, route)
}

// handleListVariants handles GET /mock/variants.
func (a *API) handleListVariants(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, nonNil(a.core.Mock().Variants()))
}

// handleGetVariant handles GET /mock/variants/{id}.
func (a *API) handleGetVariant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	variant, ok := a.core.Mock().Variant(id)
	if !ok {
		writeNotFound(w, "route variant", id)
		return
	}
	httputil.WriteOK(w, variant)
}

// handleListCustomVariants handles GET /mock/custom-route-variants.
func (a *API) handleListCustomVariants(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, nonNil(a.core.Mock().CustomRouteVariants()))
}

// handleUseCustomVariant handles POST /mock/custom-route-variants.
func (a *API) handleUseCustomVariant(w http.ResponseWriter, r *http.Request) {
	var req CustomVariantRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", err.Error())
		return
	}
	if req.ID == "" {
		httputil.WriteBadRequest(w, "missing_id", "id field is required")
		return
	}
	if err := a.core.Mock().UseRouteVariant(req.ID); err != nil {
		if errors.Is(err, mock.ErrNotFound) {
			writeNotFound(w, "route variant", req.ID)
			return
		}
		httputil.WriteBadRequest(w, "invalid_route_variant", err.Error())
		return
	}
	httputil.WriteNoContent(w)
}

// handleRestoreCustomVariants handles DELETE /mock/custom-route-variants.
func (a *API) handleRestoreCustomVariants(w http.ResponseWriter, r *http.Request) {
	a.core.Mock().RestoreRouteVariants()
	httputil.WriteNoContent(w)
}

// handleListLogs handles GET /logs. The optional level query parameter
// filters out less severe entries and limit keeps the latest ones.
func (a *API) handleListLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	minLevel := logging.LevelSilly
	if level := query.Get("level"); level != "" {
		minLevel = logging.ParseLevel(level)
	}
	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteBadRequest(w, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries := a.core.Logs().Entries()
	out := make([]logging.Entry, 0, len(entries))
	for _, e := range entries {
		if logging.ParseLevel(e.Level) < minLevel {
			continue
		}
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	httputil.WriteOK(w, out)
}

func writeNotFound(w http.ResponseWriter, kind, id string) {
	httputil.WriteNotFound(w, "not_found", fmt.Sprintf("%s %q not found", kind, id))
}

// nonNil keeps empty lists encoded as [] instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
