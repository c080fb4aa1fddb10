// Route registration for the admin API.

package admin

import (
	"net/http"
)

// registerRoutes sets up all API routes.
func (a *API) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /about", a.handleAbout)

	mux.HandleFunc("GET /config", a.handleGetConfig)
	mux.HandleFunc("PATCH /config", a.handlePatchConfig)

	mux.HandleFunc("GET /mock/collections", a.handleListCollections)
	mux.HandleFunc("GET /mock/collections/{id}", a.handleGetCollection)
	mux.HandleFunc("GET /mock/routes", a.handleListRoutes)
	mux.HandleFunc("GET /mock/routes/{id}", a.handleGetRoute)
	mux.HandleFunc("GET /mock/variants", a.handleListVariants)
	mux.HandleFunc("GET /mock/variants/{id}", a.handleGetVariant)

	mux.HandleFunc("GET /mock/custom-route-variants", a.handleListCustomVariants)
	mux.HandleFunc("POST /mock/custom-route-variants", a.handleUseCustomVariant)
	mux.HandleFunc("DELETE /mock/custom-route-variants", a.handleRestoreCustomVariants)

	mux.Handle("GET /metrics", a.core.Metrics().Handler())
	mux.HandleFunc("GET /logs", a.handleListLogs)
}
