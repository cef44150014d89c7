package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/configcache"
	"github.com/tobilg/widget-studio/internal/events"
	"github.com/tobilg/widget-studio/internal/logger"
	"github.com/tobilg/widget-studio/internal/websocket"
	"github.com/tobilg/widget-studio/internal/widget"
)

const maxNameLength = 255

// ListWidgets handles GET /api/widgets
func (h *Handlers) ListWidgets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := api.WidgetFilter{
		CategoryID: q.Get("categoryId"),
		ActiveOnly: q.Get("includeInactive") != "true",
	}

	if raw := q.Get("types"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			t, err := widget.ParseType(strings.TrimSpace(tag))
			if err != nil {
				api.WriteError(w, http.StatusBadRequest, err.Error())
				return
			}
			filter.Types = append(filter.Types, t)
		}
	}
	if raw := q.Get("isPublic"); raw != "" {
		public, err := strconv.ParseBool(raw)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "isPublic must be true or false")
			return
		}
		filter.IsPublic = &public
	}

	var err error
	if filter.Limit, err = parseIntParam(r, "limit", 50); err != nil {
		api.WriteErrorFromError(w, err)
		return
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	if filter.Offset, err = parseIntParam(r, "offset", 0); err != nil {
		api.WriteErrorFromError(w, err)
		return
	}

	widgets, err := h.store.ListWidgets(r.Context(), filter)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if widgets == nil {
		widgets = []api.Widget{}
	}

	api.WriteJSON(w, http.StatusOK, api.WidgetsResponse{Widgets: widgets})
}

// ListWidgetTypes handles GET /api/widgets/types
func (h *Handlers) ListWidgetTypes(w http.ResponseWriter, r *http.Request) {
	registered := h.registry.ListTypes()
	types := make([]string, len(registered))
	for i, t := range registered {
		types[i] = t.String()
	}
	api.WriteJSON(w, http.StatusOK, api.WidgetTypesResponse{Types: types})
}

// CreateWidget handles POST /api/widgets
func (h *Handlers) CreateWidget(w http.ResponseWriter, r *http.Request) {
	var req api.CreateWidgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		api.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Name) > maxNameLength {
		api.WriteError(w, http.StatusBadRequest, "name must be at most 255 characters")
		return
	}

	t, err := widget.ParseType(req.WidgetType)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	shape, ratio, err := parseShapeAndRatio(req.Shape, req.SizeRatio)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.store.CreateWidget(r.Context(), &api.Widget{
		Name:         req.Name,
		Description:  req.Description,
		WidgetType:   t,
		Shape:        shape,
		SizeRatio:    ratio,
		CategoryID:   req.CategoryID,
		ThumbnailURL: req.ThumbnailURL,
		IsPublic:     req.IsPublic,
	})
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	api.WriteJSON(w, http.StatusCreated, created)
}

// GetWidget handles GET /api/widgets/{id}
func (h *Handlers) GetWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	wd, err := h.store.GetWidget(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if wd == nil {
		api.WriteError(w, http.StatusNotFound, "widget not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, wd)
}

// UpdateWidget handles PUT /api/widgets/{id}
func (h *Handlers) UpdateWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req api.UpdateWidgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Name) > maxNameLength {
		api.WriteError(w, http.StatusBadRequest, "name must be at most 255 characters")
		return
	}
	shape, ratio, err := parseShapeAndRatio(req.Shape, req.SizeRatio)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Shape, req.SizeRatio = string(shape), string(ratio)

	if shape != "" || ratio != "" {
		if err := h.checkGeometryChange(r.Context(), id, shape, ratio); err != nil {
			api.WriteErrorFromError(w, err)
			return
		}
	}

	updated, err := h.store.UpdateWidget(r.Context(), id, &req)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if updated == nil {
		api.WriteError(w, http.StatusNotFound, "widget not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, updated)
}

// checkGeometryChange refuses shape or size ratio changes on widgets that
// published versions place, since those versions must keep rendering as
// they were published.
func (h *Handlers) checkGeometryChange(ctx context.Context, id string, shape widget.Shape, ratio widget.SizeRatio) error {
	current, err := h.store.GetWidget(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return api.NewNotFoundError("widget", id)
	}

	field := ""
	switch {
	case shape != "" && shape != current.Shape:
		field = "shape"
	case ratio != "" && ratio != current.SizeRatio:
		field = "sizeRatio"
	default:
		return nil
	}

	referenced, err := h.store.WidgetReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return api.NewWidgetInUseError(id, field)
	}
	return nil
}

// DeleteWidget handles DELETE /api/widgets/{id}. Widgets are deactivated,
// never removed, so published versions keep rendering.
func (h *Handlers) DeleteWidget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := h.store.DeactivateWidget(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		api.WriteError(w, http.StatusNotFound, "widget not found")
		return
	}

	// Published versions keep rendering a deactivated widget.
	if referenced, err := h.store.WidgetReferenced(r.Context(), id); err == nil && referenced {
		logger.Info("Deactivated widget is still placed on published versions", "widget_id", id)
	}

	w.WriteHeader(http.StatusNoContent)
}

// configurationResponse carries the stored document and whether it passes
// validation for the widget's kind. Invalid documents render with defaults.
type configurationResponse struct {
	Configuration   *api.WidgetConfiguration `json:"configuration"`
	Valid           bool                     `json:"valid"`
	ValidationError string                   `json:"validationError,omitempty"`
}

// GetConfiguration handles GET /api/widgets/{id}/configuration
func (h *Handlers) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	wd, err := h.store.GetWidget(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if wd == nil {
		api.WriteError(w, http.StatusNotFound, "widget not found")
		return
	}

	cfg, err := h.store.GetConfiguration(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cfg == nil {
		api.WriteError(w, http.StatusNotFound, "configuration not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, describeConfiguration(wd.WidgetType, cfg))
}

// SaveConfiguration handles PUT /api/widgets/{id}/configuration. The
// document is replaced wholesale and every cache holding it is invalidated.
func (h *Handlers) SaveConfiguration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req api.SaveConfigurationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wd, err := h.store.GetWidget(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if wd == nil {
		api.WriteError(w, http.StatusNotFound, "widget not found")
		return
	}
	if req.Name == "" {
		req.Name = wd.Name
	}

	saved, err := h.store.SaveConfiguration(r.Context(), id, &req)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.configurationChanged(r.Context(), id)
	api.WriteJSON(w, http.StatusOK, describeConfiguration(wd.WidgetType, saved))
}

func (h *Handlers) configurationChanged(ctx context.Context, widgetID string) {
	if h.cache != nil {
		h.cache.Invalidate(widgetID)
	}
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewConfigurationUpdatedMessage(widgetID))
	}
	if h.bus != nil {
		ev := events.Event{Type: events.ConfigInvalidated, WidgetID: widgetID}
		if h.publisher != nil {
			ev.Origin = h.publisher.Origin()
		}
		if err := h.bus.Publish(ctx, ev); err != nil {
			logger.Warn("Failed to publish configuration invalidation", "widget_id", widgetID, "error", err)
		}
	}
}

func describeConfiguration(t widget.Type, cfg *api.WidgetConfiguration) configurationResponse {
	resp := configurationResponse{Configuration: cfg, Valid: true}
	if err := configcache.Validate(t, cfg.Config); err != nil {
		resp.Valid = false
		resp.ValidationError = err.Error()
	}
	return resp
}

func parseShapeAndRatio(shape, ratio string) (widget.Shape, widget.SizeRatio, error) {
	var s widget.Shape
	var sr widget.SizeRatio
	var err error
	if shape != "" {
		if s, err = widget.ParseShape(shape); err != nil {
			return "", "", err
		}
	}
	if ratio != "" {
		if sr, err = widget.ParseSizeRatio(ratio); err != nil {
			return "", "", err
		}
	}
	return s, sr, nil
}
