package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/grid"
	"github.com/tobilg/widget-studio/internal/render"
)

// ListDashboards handles GET /api/dashboards
func (h *Handlers) ListDashboards(w http.ResponseWriter, r *http.Request) {
	dashboards, err := h.store.GetDashboards(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if dashboards == nil {
		dashboards = []api.Dashboard{}
	}

	api.WriteJSON(w, http.StatusOK, api.DashboardsResponse{Dashboards: dashboards})
}

// CreateDashboard handles POST /api/dashboards
func (h *Handlers) CreateDashboard(w http.ResponseWriter, r *http.Request) {
	var req api.CreateDashboardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		api.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	// Validate name length (max 255 characters)
	if len(req.Name) > maxNameLength {
		api.WriteError(w, http.StatusBadRequest, "name must be at most 255 characters")
		return
	}

	dashboard, err := h.store.CreateDashboard(r.Context(), &req)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	api.WriteJSON(w, http.StatusCreated, dashboard)
}

// GetDashboard handles GET /api/dashboards/{id}
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "id is required")
		return
	}

	dashboard, err := h.store.GetDashboardWithVersions(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if dashboard == nil {
		api.WriteError(w, http.StatusNotFound, "dashboard not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, dashboard)
}

// CreateDraft handles POST /api/dashboards/{id}/drafts. It returns the
// existing draft when there is one.
func (h *Handlers) CreateDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.publisher.CreateDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, draft)
}

// ListVersions handles GET /api/dashboards/{id}/versions
func (h *Handlers) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.publisher.ListVersions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, api.VersionsResponse{Versions: versions})
}

// GetActiveVersion handles GET /api/dashboards/{id}/versions/active
func (h *Handlers) GetActiveVersion(w http.ResponseWriter, r *http.Request) {
	active, ok := h.activeVersion(w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, active)
}

// layoutResponse is a placement set laid out on every breakpoint of a set.
type layoutResponse struct {
	VersionID   string             `json:"versionId,omitempty"`
	DraftID     string             `json:"draftId,omitempty"`
	Breakpoints grid.BreakpointSet `json:"breakpoints"`
	Layout      grid.Layout        `json:"layout"`
}

// GetDashboardLayout handles GET /api/dashboards/{id}/layout, the read-only
// layout of the active version.
func (h *Handlers) GetDashboardLayout(w http.ResponseWriter, r *http.Request) {
	set, err := h.breakpointSet(r)
	if err != nil {
		api.WriteErrorFromError(w, err)
		return
	}
	active, ok := h.activeVersion(w, r)
	if !ok {
		return
	}

	api.WriteJSON(w, http.StatusOK, layoutResponse{
		VersionID:   active.ID,
		Breakpoints: set,
		Layout:      grid.ToGridLayout(active.Placements, set),
	})
}

// renderResponse is what a viewer draws for one dashboard mount.
type renderResponse struct {
	SessionID  string        `json:"sessionId"`
	VersionID  string        `json:"versionId,omitempty"`
	DraftID    string        `json:"draftId,omitempty"`
	Breakpoint string        `json:"breakpoint"`
	Nodes      []render.Node `json:"nodes"`
}

// RenderDashboard handles GET /api/dashboards/{id}/render. It renders the
// active version, or the draft named by ?draft= for an editor preview. The
// X-Session-ID header identifies the viewer's mount for view deduplication.
func (h *Handlers) RenderDashboard(w http.ResponseWriter, r *http.Request) {
	dashboardID := chi.URLParam(r, "id")
	resp := renderResponse{Breakpoint: r.URL.Query().Get("breakpoint")}

	var placements []api.Placement
	if draftID := r.URL.Query().Get("draft"); draftID != "" {
		draft, err := h.store.GetDraft(r.Context(), draftID)
		if err != nil {
			api.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if draft == nil || draft.DashboardID != dashboardID {
			api.WriteError(w, http.StatusNotFound, "draft not found")
			return
		}
		if placements, err = h.publisher.GetPlacements(r.Context(), draftID, true); err != nil {
			api.WriteErrorFromError(w, err)
			return
		}
		resp.DraftID = draftID
	} else {
		active, ok := h.activeVersion(w, r)
		if !ok {
			return
		}
		placements = active.Placements
		resp.VersionID = active.ID
	}

	if _, ok := h.pipeline.Breakpoints().Lookup(resp.Breakpoint); !ok {
		resp.Breakpoint = h.pipeline.Breakpoints()[0].Name
	}

	session := h.sessions.Get(r.Header.Get("X-Session-ID"), r.Header.Get("X-User-ID"))
	resp.SessionID = session.ID
	resp.Nodes = h.pipeline.RenderDashboard(r.Context(), session, placements, resp.Breakpoint)

	w.Header().Set("X-Session-ID", session.ID)
	api.WriteJSON(w, http.StatusOK, resp)
}

// activeVersion loads the active version of the dashboard in the URL and
// writes the error response itself when there is none.
func (h *Handlers) activeVersion(w http.ResponseWriter, r *http.Request) (*api.VersionWithPlacements, bool) {
	active, err := h.publisher.GetActiveVersion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteErrorFromError(w, err)
		return nil, false
	}
	if active == nil {
		api.WriteError(w, http.StatusNotFound, "dashboard has no published version")
		return nil, false
	}
	return active, true
}
