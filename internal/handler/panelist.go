package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/concordance/api/internal/model"
)

// PanelistService is the panelist flow the handler drives
type PanelistService interface {
	Register(ctx context.Context, concordanceID string, req *model.CreatePanelistRequest) (*model.Panelist, error)
	Get(ctx context.Context, panelistID string) (*model.Panelist, error)
	ListByConcordance(ctx context.Context, concordanceID string) ([]*model.Panelist, error)
	Reprovision(ctx context.Context, panelistID string) (*model.Panelist, error)
	Remove(ctx context.Context, panelistID string) error
}

// PanelistHandler handles panelist endpoints
type PanelistHandler struct {
	svc    PanelistService
	logger *slog.Logger
}

// NewPanelistHandler creates a new panelist handler
func NewPanelistHandler(svc PanelistService, logger *slog.Logger) *PanelistHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PanelistHandler{svc: svc, logger: logger}
}

func panelistLinks(p *model.Panelist) map[string]string {
	links := map[string]string{
		"self":        "/v1/panelists/" + p.ID,
		"concordance": "/v1/concordances/" + p.ConcordanceID + "/panelists",
	}
	if !p.IsProvisioned() {
		links["provision"] = "/v1/panelists/" + p.ID + "/provision"
	}
	return links
}

// Create handles POST /v1/concordances/{concordanceId}/panelists
func (h *PanelistHandler) Create(w http.ResponseWriter, r *http.Request) {
	concordanceID := r.PathValue("concordanceId")
	if concordanceID == "" {
		WriteError(w, model.NewBadRequestError("concordance ID required"))
		return
	}

	var req model.CreatePanelistRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	panelist, err := h.svc.Register(r.Context(), concordanceID, &req)
	if err != nil && panelist != nil {
		// The record is stored without a working account. Its provision
		// link retries the account, not the registration.
		pd := MapServiceErrorWithContext(err, "provision panelist")
		h.logger.Warn("panelist registered without account",
			slog.String("panelist_id", panelist.ID),
			slog.String("error", err.Error()),
		)
		WritePartial(w, http.StatusAccepted, panelist, pd, panelistLinks(panelist))
		return
	}
	if err != nil {
		writeServiceError(w, h.logger, "register panelist", err)
		return
	}

	WriteData(w, http.StatusCreated, panelist, panelistLinks(panelist))
}

// List handles GET /v1/concordances/{concordanceId}/panelists
func (h *PanelistHandler) List(w http.ResponseWriter, r *http.Request) {
	concordanceID := r.PathValue("concordanceId")
	if concordanceID == "" {
		WriteError(w, model.NewBadRequestError("concordance ID required"))
		return
	}

	panelists, err := h.svc.ListByConcordance(r.Context(), concordanceID)
	if err != nil {
		writeServiceError(w, h.logger, "list panelists", err)
		return
	}

	WriteCollection(w, http.StatusOK, panelists, len(panelists), map[string]string{
		"self": "/v1/concordances/" + concordanceID + "/panelists",
	})
}

// Get handles GET /v1/panelists/{panelistId}
func (h *PanelistHandler) Get(w http.ResponseWriter, r *http.Request) {
	panelistID := r.PathValue("panelistId")
	if panelistID == "" {
		WriteError(w, model.NewBadRequestError("panelist ID required"))
		return
	}

	panelist, err := h.svc.Get(r.Context(), panelistID)
	if err != nil {
		writeServiceError(w, h.logger, "get panelist", err)
		return
	}

	WriteData(w, http.StatusOK, panelist, panelistLinks(panelist))
}

// Provision handles POST /v1/panelists/{panelistId}/provision
func (h *PanelistHandler) Provision(w http.ResponseWriter, r *http.Request) {
	panelistID := r.PathValue("panelistId")
	if panelistID == "" {
		WriteError(w, model.NewBadRequestError("panelist ID required"))
		return
	}

	panelist, err := h.svc.Reprovision(r.Context(), panelistID)
	if err != nil {
		writeServiceError(w, h.logger, "provision panelist", err)
		return
	}

	WriteData(w, http.StatusOK, panelist, panelistLinks(panelist))
}

// Delete handles DELETE /v1/panelists/{panelistId}
func (h *PanelistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	panelistID := r.PathValue("panelistId")
	if panelistID == "" {
		WriteError(w, model.NewBadRequestError("panelist ID required"))
		return
	}

	if err := h.svc.Remove(r.Context(), panelistID); err != nil {
		writeServiceError(w, h.logger, "remove panelist", err)
		return
	}

	WriteNoContent(w)
}
