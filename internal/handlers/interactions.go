package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tobilg/widget-studio/internal/api"
)

// RecordInteraction handles POST /api/interactions. The event is queued and
// the response does not wait for it to be stored.
func (h *Handlers) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req api.InteractionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = r.Header.Get("X-Session-ID")
	}
	session := h.sessions.Get(sessionID, req.UserID)

	if err := h.pipeline.Track(session, req.WidgetID, api.InteractionAction(req.Action)); err != nil {
		api.WriteErrorFromError(w, err)
		return
	}

	w.Header().Set("X-Session-ID", session.ID)
	api.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type interactionCountsResponse struct {
	WidgetID string                        `json:"widgetId"`
	Counts   map[api.InteractionAction]int `json:"counts"`
}

// GetInteractionCounts handles GET /api/widgets/{id}/interactions
func (h *Handlers) GetInteractionCounts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	counts, err := h.store.InteractionCounts(r.Context(), id)
	if err != nil {
		api.WriteErrorFromError(w, api.NewStorageError("count interactions", err))
		return
	}
	api.WriteJSON(w, http.StatusOK, interactionCountsResponse{WidgetID: id, Counts: counts})
}
