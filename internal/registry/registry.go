package registry

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/logger"
	"github.com/tobilg/widget-studio/internal/widget"
)

// Input is what a renderer receives for one placed widget.
// Config is nil when the widget has no valid configuration.
type Input struct {
	Widget api.Widget
	Config *api.WidgetConfiguration
	Box    widget.Box
}

// Output is the renderer-specific part of a rendered node.
type Output struct {
	Component string           `json:"component"`
	Title     string           `json:"title"`
	Subtitle  string           `json:"subtitle,omitempty"`
	Props     map[string]any   `json:"props,omitempty"`
	Styles    api.WidgetStyles `json:"styles"`
}

// Renderer turns a widget and its configuration into a renderable node.
type Renderer interface {
	Render(ctx context.Context, in Input) (Output, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, in Input) (Output, error)

func (f RendererFunc) Render(ctx context.Context, in Input) (Output, error) {
	return f(ctx, in)
}

// Registry maps widget kinds to renderers. One instance is built at startup
// and handed to the render pipeline and the editor handlers.
type Registry struct {
	mu          sync.RWMutex
	renderers   map[widget.Type]Renderer
	fallback    Renderer
	initOnce    sync.Once
	initialized atomic.Bool
}

// New creates an empty registry. Resolve works immediately and returns the
// fallback renderer until kinds are registered.
func New() *Registry {
	return &Registry{
		renderers: make(map[widget.Type]Renderer),
		fallback:  RendererFunc(renderFallback),
	}
}

// Initialize runs setup exactly once, no matter how often it is called.
func (r *Registry) Initialize(setup func(*Registry)) {
	r.initOnce.Do(func() {
		if setup != nil {
			setup(r)
		}
		r.initialized.Store(true)
		logger.Debug("Widget registry initialized", "types", len(r.ListTypes()))
	})
}

// Initialized reports whether Initialize has completed.
func (r *Registry) Initialized() bool {
	return r.initialized.Load()
}

// Register stores the renderer for t. A second registration for the same
// kind replaces the first.
func (r *Registry) Register(t widget.Type, renderer Renderer) {
	if !t.Valid() {
		logger.Warn("Ignoring renderer for unknown widget type", "widget_type", string(t))
		return
	}
	if renderer == nil {
		logger.Warn("Ignoring nil renderer", "widget_type", string(t))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[t]; exists {
		logger.Warn("Widget renderer registered twice, replacing", "widget_type", string(t))
	}
	r.renderers[t] = renderer
}

// Resolve returns the renderer for t, or the fallback renderer when none is
// registered. It never returns nil.
func (r *Registry) Resolve(t widget.Type) Renderer {
	r.mu.RLock()
	renderer, ok := r.renderers[t]
	r.mu.RUnlock()
	if ok {
		return renderer
	}

	if r.Initialized() {
		logger.Warn("No renderer registered for widget type, using fallback", "widget_type", string(t))
	}
	return r.fallback
}

// ResolveTag is Resolve for a raw persisted tag.
func (r *Registry) ResolveTag(tag string) Renderer {
	t, err := widget.ParseType(tag)
	if err != nil {
		logger.Warn("Unknown widget type tag, using fallback", "widget_type", tag)
		return r.fallback
	}
	return r.Resolve(t)
}

// Has reports whether a renderer is registered for t.
func (r *Registry) Has(t widget.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.renderers[t]
	return ok
}

// ListTypes returns the registered kinds sorted by tag.
func (r *Registry) ListTypes() []widget.Type {
	r.mu.RLock()
	types := make([]widget.Type, 0, len(r.renderers))
	for t := range r.renderers {
		types = append(types, t)
	}
	r.mu.RUnlock()

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Fallback returns the built-in default renderer.
func (r *Registry) Fallback() Renderer {
	return r.fallback
}

func renderFallback(_ context.Context, in Input) (Output, error) {
	out := Output{
		Component: "fallback",
		Title:     in.Widget.Name,
		Props: map[string]any{
			"widgetType":  string(in.Widget.WidgetType),
			"description": in.Widget.Description,
		},
	}
	if in.Config != nil {
		applyCommon(&out, in.Config)
	}
	return out, nil
}

// applyCommon copies the kind-independent parts of a configuration.
func applyCommon(out *Output, cfg *api.WidgetConfiguration) {
	if cfg.Config.Title != "" {
		out.Title = cfg.Config.Title
	}
	out.Subtitle = cfg.Config.Subtitle
	out.Styles = cfg.Config.Styles
	if cfg.Config.Description != "" {
		if out.Props == nil {
			out.Props = make(map[string]any)
		}
		out.Props["description"] = cfg.Config.Description
	}
}
