package handler

import "net/http"

// RegisterRoutes registers panelist routes
func (h *PanelistHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/concordances/{concordanceId}/panelists", h.Create)
	mux.HandleFunc("GET /v1/concordances/{concordanceId}/panelists", h.List)

	mux.HandleFunc("GET /v1/panelists/{panelistId}", h.Get)
	mux.HandleFunc("DELETE /v1/panelists/{panelistId}", h.Delete)
	mux.HandleFunc("POST /v1/panelists/{panelistId}/provision", h.Provision)
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
}
