package render

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/grid"
	"github.com/tobilg/widget-studio/internal/logger"
	"github.com/tobilg/widget-studio/internal/registry"
	"github.com/tobilg/widget-studio/internal/widget"
)

// DefaultLoadTimeout is how long a render waits for a configuration before
// returning a loading node.
const DefaultLoadTimeout = 750 * time.Millisecond

// ConfigSource returns a widget's configuration, cache-first. A nil
// configuration means the widget renders with defaults.
type ConfigSource interface {
	Get(ctx context.Context, widgetID string) (*api.WidgetConfiguration, error)
}

// WidgetSource looks up widgets. It returns nil, nil for unknown ids.
type WidgetSource interface {
	GetWidget(ctx context.Context, id string) (*api.Widget, error)
}

// Tracker accepts interaction events without blocking.
type Tracker interface {
	Track(in api.Interaction)
}

// Pipeline renders widgets through the registry. A failure in one widget
// becomes an error node and never affects its siblings.
type Pipeline struct {
	registry    *registry.Registry
	configs     ConfigSource
	widgets     WidgetSource
	tracker     Tracker
	loadTimeout time.Duration
	parallelism int
	metrics     grid.Metrics
	breakpoints grid.BreakpointSet
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

func WithTracker(t Tracker) Option {
	return func(p *Pipeline) { p.tracker = t }
}

func WithLoadTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.loadTimeout = d
		}
	}
}

// WithParallelism bounds concurrent widget loads in RenderDashboard.
func WithParallelism(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.parallelism = n
		}
	}
}

func WithMetrics(m grid.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithBreakpoints(set grid.BreakpointSet) Option {
	return func(p *Pipeline) {
		if len(set) > 0 {
			p.breakpoints = set
		}
	}
}

func NewPipeline(reg *registry.Registry, configs ConfigSource, widgets WidgetSource, opts ...Option) *Pipeline {
	p := &Pipeline{
		registry:    reg,
		configs:     configs,
		widgets:     widgets,
		loadTimeout: DefaultLoadTimeout,
		parallelism: 8,
		metrics:     grid.DefaultMetrics,
		breakpoints: grid.StandardBreakpoints,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render renders one widget into box. It always returns a node: resolution
// failures, renderer errors and renderer panics produce an error node.
func (p *Pipeline) Render(ctx context.Context, w api.Widget, cfg *api.WidgetConfiguration, box widget.Box) (node Node) {
	node = Node{WidgetID: w.ID, WidgetType: w.WidgetType}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Widget renderer panicked",
				"widget_id", w.ID,
				"widget_type", string(w.WidgetType),
				"panic", fmt.Sprint(r),
			)
			node = errorNode(w.ID, fmt.Sprintf("widget failed to render: %v", r), false)
			node.WidgetType = w.WidgetType
		}
	}()

	renderer := p.registry.ResolveTag(string(w.WidgetType))
	out, err := renderer.Render(ctx, registry.Input{
		Widget: w,
		Config: cfg,
		Box:    widget.EffectiveRenderBox(w.Shape, box),
	})
	if err != nil {
		logger.Warn("Widget render failed",
			"widget_id", w.ID,
			"widget_type", string(w.WidgetType),
			"error", err,
		)
		node = errorNode(w.ID, err.Error(), false)
		node.WidgetType = w.WidgetType
		return node
	}

	node.State = StateReady
	node.Output = &out
	return node
}

// Breakpoints returns the set RenderDashboard lays widgets out on.
func (p *Pipeline) Breakpoints() grid.BreakpointSet {
	return p.breakpoints
}

// RenderDashboard lays placements out on the named breakpoint and renders
// each one. An unknown breakpoint falls back to the narrowest. Widgets load
// concurrently and the result is in input order. A configuration that is
// not available within the load timeout yields a loading node while the
// fetch keeps filling the cache in the background.
func (p *Pipeline) RenderDashboard(ctx context.Context, session *Session, placements []api.Placement, breakpoint string) []Node {
	bp, ok := p.breakpoints.Lookup(breakpoint)
	if !ok {
		bp = p.breakpoints.Smallest()
	}
	items := grid.ToGridLayout(placements, p.breakpoints)[bp.Name]
	nodes := make([]Node, len(placements))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for i := range placements {
		g.Go(func() error {
			nodes[i] = p.renderPlacement(gctx, session, placements[i], items[i], bp)
			return nil
		})
	}
	_ = g.Wait()

	return nodes
}

func (p *Pipeline) renderPlacement(ctx context.Context, session *Session, pl api.Placement, item grid.Item, bp grid.Breakpoint) Node {
	node := p.loadAndRender(ctx, session, pl, item, bp)
	node.PlacementID = pl.ID
	if node.Rect == (grid.Rect{}) {
		node.Rect = grid.PixelBox(item, bp, p.metrics, widget.ShapeRectangle)
	}
	return node
}

func (p *Pipeline) loadAndRender(ctx context.Context, session *Session, pl api.Placement, item grid.Item, bp grid.Breakpoint) Node {
	w, err := p.widgets.GetWidget(ctx, pl.WidgetID)
	if err != nil {
		return errorNode(pl.WidgetID, "loading widget failed", true)
	}
	if w == nil {
		return errorNode(pl.WidgetID, "widget not found", false)
	}

	rect := grid.PixelBox(item, bp, p.metrics, w.Shape)

	cfg, state, err := p.loadConfig(ctx, w.ID)
	switch {
	case err != nil:
		logger.Warn("Configuration fetch failed", "widget_id", w.ID, "error", err)
		node := errorNode(w.ID, "loading configuration failed", true)
		node.WidgetType = w.WidgetType
		node.Rect = rect
		return node
	case state == StateLoading:
		return Node{WidgetID: w.ID, WidgetType: w.WidgetType, State: StateLoading, Rect: rect}
	}

	node := p.Render(ctx, *w, cfg, widget.Box{Width: rect.Width, Height: rect.Height})
	node.Rect = rect
	if node.State == StateReady && session != nil && session.MarkViewed(w.ID) {
		p.emit(session, w.ID, api.ActionView)
	}
	return node
}

type loadResult struct {
	cfg *api.WidgetConfiguration
	err error
}

func (p *Pipeline) loadConfig(ctx context.Context, widgetID string) (*api.WidgetConfiguration, State, error) {
	done := make(chan loadResult, 1)
	go func() {
		cfg, err := p.configs.Get(context.WithoutCancel(ctx), widgetID)
		done <- loadResult{cfg: cfg, err: err}
	}()

	timer := time.NewTimer(p.loadTimeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.cfg, StateReady, r.err
	case <-timer.C:
		return nil, StateLoading, nil
	case <-ctx.Done():
		return nil, StateLoading, nil
	}
}

// Track emits a user action from inside a rendered widget. It does not wait
// for the event to be stored.
func (p *Pipeline) Track(session *Session, widgetID string, action api.InteractionAction) error {
	if widgetID == "" {
		return api.NewValidationError("widgetId", "is required")
	}
	if !action.Valid() {
		return api.NewValidationError("action", fmt.Sprintf("unknown action %q", action))
	}
	p.emit(session, widgetID, action)
	return nil
}

func (p *Pipeline) emit(session *Session, widgetID string, action api.InteractionAction) {
	if p.tracker == nil {
		return
	}
	in := api.Interaction{WidgetID: widgetID, Action: action}
	if session != nil {
		in.SessionID = session.ID
		in.UserID = session.UserID
	}
	p.tracker.Track(in)
}
