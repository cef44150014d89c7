package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/grid"
)

// GetDraftPlacements handles GET /api/drafts/{id}/placements
func (h *Handlers) GetDraftPlacements(w http.ResponseWriter, r *http.Request) {
	placements, err := h.publisher.GetPlacements(r.Context(), chi.URLParam(r, "id"), true)
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.PlacementsResponse{Placements: placements})
}

// ReplaceDraftPlacements handles PUT /api/drafts/{id}/placements
func (h *Handlers) ReplaceDraftPlacements(w http.ResponseWriter, r *http.Request) {
	var req api.ReplacePlacementsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	placements, err := h.publisher.ReplacePlacements(r.Context(), chi.URLParam(r, "id"), req.Placements)
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.PlacementsResponse{Placements: placements})
}

// GetDraftLayout handles GET /api/drafts/{id}/layout, the editable layout of
// the draft on every breakpoint.
func (h *Handlers) GetDraftLayout(w http.ResponseWriter, r *http.Request) {
	set, err := h.breakpointSet(r)
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}
	draftID := chi.URLParam(r, "id")
	placements, err := h.publisher.GetPlacements(r.Context(), draftID, true)
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, layoutResponse{
		DraftID:     draftID,
		Breakpoints: set,
		Layout:      grid.ToGridLayout(placements, set),
	})
}

// saveLayoutRequest is the editor's grid state for one breakpoint.
type saveLayoutRequest struct {
	Items []grid.Item `json:"items"`
}

// SaveDraftLayout handles PUT /api/drafts/{id}/layout. Item geometry is
// written back onto the draft's placements by id and the result replaces
// the stored set. Items with an unknown id are ignored.
func (h *Handlers) SaveDraftLayout(w http.ResponseWriter, r *http.Request) {
	var req saveLayoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	draftID := chi.URLParam(r, "id")
	base, err := h.publisher.GetPlacements(r.Context(), draftID, true)
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}

	moved := grid.FromGridLayout(req.Items, base)
	inputs := make([]api.PlacementInput, len(moved))
	for i, p := range moved {
		inputs[i] = api.PlacementInput{
			WidgetID:   p.WidgetID,
			PositionX:  p.PositionX,
			PositionY:  p.PositionY,
			Width:      p.Width,
			Height:     p.Height,
			LayoutType: p.LayoutType,
		}
	}

	placements, err := h.publisher.ReplacePlacements(r.Context(), draftID, inputs)
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.PlacementsResponse{Placements: placements})
}

// PublishDraft handles POST /api/drafts/{id}/publish
func (h *Handlers) PublishDraft(w http.ResponseWriter, r *http.Request) {
	var req api.PublishRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.DraftID = chi.URLParam(r, "id")

	v, err := h.publisher.Publish(r.Context(), req)
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, v)
}

// ResetDraft handles POST /api/drafts/{id}/reset, copying a version's
// placements back into the draft.
func (h *Handlers) ResetDraft(w http.ResponseWriter, r *http.Request) {
	var req api.ResetDraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.VersionID == "" {
		api.WriteError(w, http.StatusBadRequest, "versionId is required")
		return
	}

	placements, err := h.publisher.ResetDraftFromVersion(r.Context(), chi.URLParam(r, "id"), req.VersionID)
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.PlacementsResponse{Placements: placements})
}

// GetVersionPlacements handles GET /api/versions/{id}/placements
func (h *Handlers) GetVersionPlacements(w http.ResponseWriter, r *http.Request) {
	placements, err := h.publisher.GetPlacements(r.Context(), chi.URLParam(r, "id"), false)
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.PlacementsResponse{Placements: placements})
}

// RestoreVersion handles POST /api/versions/{id}/restore
func (h *Handlers) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	var req api.RestoreVersionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.publisher.Restore(r.Context(), chi.URLParam(r, "id"), req.Author)
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, v)
}
