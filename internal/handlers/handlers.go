package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/configcache"
	"github.com/tobilg/widget-studio/internal/events"
	"github.com/tobilg/widget-studio/internal/grid"
	"github.com/tobilg/widget-studio/internal/logger"
	"github.com/tobilg/widget-studio/internal/publish"
	"github.com/tobilg/widget-studio/internal/registry"
	"github.com/tobilg/widget-studio/internal/render"
	"github.com/tobilg/widget-studio/internal/storage"
	"github.com/tobilg/widget-studio/internal/websocket"
)

// Deps are the collaborators the handlers call into. Bus may be nil.
type Deps struct {
	Store       *storage.Store
	Publisher   *publish.Service
	Cache       *configcache.Cache
	Registry    *registry.Registry
	Pipeline    *render.Pipeline
	Sessions    *render.Sessions
	Hub         *websocket.Hub
	Bus         events.Bus
	Breakpoints grid.BreakpointSet
}

type Handlers struct {
	store       *storage.Store
	publisher   *publish.Service
	cache       *configcache.Cache
	registry    *registry.Registry
	pipeline    *render.Pipeline
	sessions    *render.Sessions
	hub         *websocket.Hub
	bus         events.Bus
	breakpoints grid.BreakpointSet
}

func New(d Deps) *Handlers {
	breakpoints := d.Breakpoints
	if len(breakpoints) == 0 {
		breakpoints = grid.StandardBreakpoints
	}
	return &Handlers{
		store:       d.Store,
		publisher:   d.Publisher,
		cache:       d.Cache,
		registry:    d.Registry,
		pipeline:    d.Pipeline,
		sessions:    d.Sessions,
		hub:         d.Hub,
		bus:         d.Bus,
		breakpoints: breakpoints,
	}
}

// HandleWebSocket handles GET /ws
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, w, r)
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DB().PingContext(r.Context()); err != nil {
		logger.Error("Health check failed", "error", err)
		api.WriteError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

// decodeJSON reads the request body into dst. A body over the payload limit
// is reported as 413, anything else unreadable as 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.WriteErrorFromError(w, api.NewPayloadTooLargeError(tooLarge.Limit, r.ContentLength))
			return false
		}
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func parseIntParam(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, api.NewValidationError(name, "must be a non-negative integer")
	}
	return v, nil
}

// breakpointSet resolves the "breakpoints" query parameter, defaulting to
// the configured set.
func (h *Handlers) breakpointSet(r *http.Request) (grid.BreakpointSet, error) {
	name := r.URL.Query().Get("breakpoints")
	if name == "" {
		return h.breakpoints, nil
	}
	set, ok := grid.BreakpointSetByName(name)
	if !ok {
		return nil, api.NewValidationError("breakpoints", "unknown breakpoint set "+name)
	}
	return set, nil
}
