package render

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/registry"
	"github.com/tobilg/widget-studio/internal/widget"
)

type fakeWidgets map[string]*api.Widget

func (f fakeWidgets) GetWidget(ctx context.Context, id string) (*api.Widget, error) {
	if id == "broken-store" {
		return nil, errors.New("connection reset")
	}
	return f[id], nil
}

type fakeConfigs struct {
	mu      sync.Mutex
	configs map[string]*api.WidgetConfiguration
	errs    map[string]error
	delay   map[string]time.Duration
	calls   int
}

func (f *fakeConfigs) Get(ctx context.Context, widgetID string) (*api.WidgetConfiguration, error) {
	f.mu.Lock()
	f.calls++
	d := f.delay[widgetID]
	cfg := f.configs[widgetID]
	err := f.errs[widgetID]
	f.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	return cfg, err
}

type fakeTracker struct {
	mu     sync.Mutex
	events []api.Interaction
}

func (f *fakeTracker) Track(in api.Interaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, in)
}

func (f *fakeTracker) count(action api.InteractionAction) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Action == action {
			n++
		}
	}
	return n
}

func newRegistry() *registry.Registry {
	reg := registry.New()
	reg.Initialize(func(r *registry.Registry) {
		registry.RegisterBuiltins(r)
		r.Register(widget.TypeCustom, registry.RendererFunc(func(ctx context.Context, in registry.Input) (registry.Output, error) {
			switch in.Widget.Name {
			case "explodes":
				panic("boom")
			case "fails":
				return registry.Output{}, errors.New("bad props")
			}
			return registry.Output{Component: "custom", Title: in.Widget.Name}, nil
		}))
	})
	return reg
}

func contentWidget(id string) *api.Widget {
	return &api.Widget{ID: id, Name: "Content " + id, WidgetType: widget.TypeContent, Shape: widget.ShapeRectangle}
}

func contentConfig(id string) *api.WidgetConfiguration {
	return &api.WidgetConfiguration{WidgetID: id, Config: api.ConfigDocument{
		Title:  "Hello " + id,
		Fields: map[string]any{"content": "# hi"},
	}}
}

func TestRender_ErrorIsolation(t *testing.T) {
	p := NewPipeline(newRegistry(), &fakeConfigs{}, fakeWidgets{})
	ctx := context.Background()
	box := widget.Box{Width: 200, Height: 100}

	tests := []struct {
		name      string
		w         api.Widget
		wantState State
		wantErr   string
	}{
		{name: "ok", w: api.Widget{ID: "1", Name: "fine", WidgetType: widget.TypeCustom}, wantState: StateReady},
		{name: "panic", w: api.Widget{ID: "2", Name: "explodes", WidgetType: widget.TypeCustom}, wantState: StateError, wantErr: "boom"},
		{name: "error", w: api.Widget{ID: "3", Name: "fails", WidgetType: widget.TypeCustom}, wantState: StateError, wantErr: "bad props"},
		{name: "unknown tag", w: api.Widget{ID: "4", Name: "legacy", WidgetType: "carousel"}, wantState: StateReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := p.Render(ctx, tt.w, nil, box)
			if node.State != tt.wantState {
				t.Fatalf("state = %s, want %s", node.State, tt.wantState)
			}
			if tt.wantErr != "" && !strings.Contains(node.Error, tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", node.Error, tt.wantErr)
			}
			if node.State == StateReady && node.Output == nil {
				t.Error("ready node without output")
			}
		})
	}
}

func TestRender_UnknownTagUsesFallback(t *testing.T) {
	p := NewPipeline(newRegistry(), &fakeConfigs{}, fakeWidgets{})

	node := p.Render(context.Background(), api.Widget{ID: "x", Name: "Old", WidgetType: "carousel"}, nil, widget.Box{})
	if node.Output.Component != "fallback" || node.Output.Title != "Old" {
		t.Errorf("output = %+v", node.Output)
	}
}

func TestRenderDashboard_OneFailureDoesNotAbortSiblings(t *testing.T) {
	widgets := fakeWidgets{}
	configs := &fakeConfigs{configs: map[string]*api.WidgetConfiguration{}}
	var placements []api.Placement
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		widgets[id] = contentWidget(id)
		configs.configs[id] = contentConfig(id)
		placements = append(placements, api.Placement{ID: "p-" + id, WidgetID: id, PositionX: 0, PositionY: i, Width: 4, Height: 1})
	}
	widgets["c"] = &api.Widget{ID: "c", Name: "explodes", WidgetType: widget.TypeCustom}

	p := NewPipeline(newRegistry(), configs, widgets)

	nodes := p.RenderDashboard(context.Background(), nil, placements, "lg")

	if len(nodes) != 5 {
		t.Fatalf("expected 5 nodes, got %d", len(nodes))
	}
	for i, n := range nodes {
		if n.PlacementID != placements[i].ID {
			t.Errorf("nodes[%d] = %s, output order must follow input", i, n.PlacementID)
		}
		want := StateReady
		if placements[i].WidgetID == "c" {
			want = StateError
		}
		if n.State != want {
			t.Errorf("nodes[%d] state = %s, want %s", i, n.State, want)
		}
	}
	if nodes[0].Output.Title != "Hello a" {
		t.Errorf("title = %q", nodes[0].Output.Title)
	}
}

func TestRenderDashboard_LoadingAndFetchErrors(t *testing.T) {
	widgets := fakeWidgets{"slow": contentWidget("slow"), "flaky": contentWidget("flaky"), "fast": contentWidget("fast")}
	configs := &fakeConfigs{
		configs: map[string]*api.WidgetConfiguration{"slow": contentConfig("slow"), "fast": contentConfig("fast")},
		errs:    map[string]error{"flaky": errors.New("timeout talking to store")},
		delay:   map[string]time.Duration{"slow": 200 * time.Millisecond},
	}
	placements := []api.Placement{
		{ID: "1", WidgetID: "slow", Width: 2, Height: 2},
		{ID: "2", WidgetID: "flaky", PositionX: 2, Width: 2, Height: 2},
		{ID: "3", WidgetID: "fast", PositionX: 4, Width: 2, Height: 2},
		{ID: "4", WidgetID: "ghost", PositionX: 6, Width: 2, Height: 2},
		{ID: "5", WidgetID: "broken-store", PositionX: 8, Width: 2, Height: 2},
	}

	p := NewPipeline(newRegistry(), configs, widgets, WithLoadTimeout(20*time.Millisecond))
	nodes := p.RenderDashboard(context.Background(), nil, placements, "lg")

	expect := []struct {
		state       State
		recoverable bool
	}{
		{StateLoading, false},
		{StateError, true},
		{StateReady, false},
		{StateError, false},
		{StateError, true},
	}
	for i, e := range expect {
		if nodes[i].State != e.state || nodes[i].Recoverable != e.recoverable {
			t.Errorf("nodes[%d] = %s recoverable=%v, want %s recoverable=%v",
				i, nodes[i].State, nodes[i].Recoverable, e.state, e.recoverable)
		}
		if nodes[i].Rect.Width == 0 {
			t.Errorf("nodes[%d] has no rect", i)
		}
	}
}

func TestRenderDashboard_ViewOncePerSession(t *testing.T) {
	widgets := fakeWidgets{"a": contentWidget("a"), "b": contentWidget("b")}
	configs := &fakeConfigs{configs: map[string]*api.WidgetConfiguration{"a": contentConfig("a"), "b": contentConfig("b")}}
	tracker := &fakeTracker{}
	p := NewPipeline(newRegistry(), configs, widgets, WithTracker(tracker))

	sessions := NewSessions(time.Minute)
	session := sessions.Get("s1", "u1")
	placements := []api.Placement{
		{ID: "1", WidgetID: "a", Width: 2, Height: 1},
		{ID: "2", WidgetID: "b", PositionX: 2, Width: 2, Height: 1},
		{ID: "3", WidgetID: "a", PositionY: 1, Width: 2, Height: 1},
	}

	for i := 0; i < 3; i++ {
		p.RenderDashboard(context.Background(), session, placements, "lg")
	}
	if got := tracker.count(api.ActionView); got != 2 {
		t.Errorf("view events = %d, want 2", got)
	}

	other := sessions.Get("s2", "u2")
	p.RenderDashboard(context.Background(), other, placements, "lg")
	if got := tracker.count(api.ActionView); got != 4 {
		t.Errorf("view events after second session = %d, want 4", got)
	}

	tracker.mu.Lock()
	first := tracker.events[0]
	tracker.mu.Unlock()
	if first.SessionID != "s1" || first.UserID != "u1" {
		t.Errorf("event = %+v", first)
	}
}

func TestRenderDashboard_CircleGetsSquareRect(t *testing.T) {
	widgets := fakeWidgets{"round": {ID: "round", Name: "Gauge", WidgetType: widget.TypeContent, Shape: widget.ShapeCircle}}
	configs := &fakeConfigs{configs: map[string]*api.WidgetConfiguration{"round": contentConfig("round")}}
	p := NewPipeline(newRegistry(), configs, widgets)

	nodes := p.RenderDashboard(context.Background(), nil, []api.Placement{{ID: "1", WidgetID: "round", Width: 3, Height: 2}}, "lg")
	if nodes[0].Rect.Width != nodes[0].Rect.Height {
		t.Errorf("circle rect = %+v, want square", nodes[0].Rect)
	}
}

func TestTrack(t *testing.T) {
	tracker := &fakeTracker{}
	p := NewPipeline(newRegistry(), &fakeConfigs{}, fakeWidgets{}, WithTracker(tracker))
	session := NewSessions(time.Minute).Get("", "u1")

	if err := p.Track(session, "w1", api.ActionClick); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if err := p.Track(session, "w1", "hover"); !api.IsValidationError(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if err := p.Track(session, "", api.ActionClick); !api.IsValidationError(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if tracker.count(api.ActionClick) != 1 {
		t.Errorf("click events = %d", tracker.count(api.ActionClick))
	}
	if tracker.events[0].SessionID == "" {
		t.Error("expected generated session id on event")
	}
}
