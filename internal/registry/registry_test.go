package registry

import (
	"context"
	"testing"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/widget"
)

func stubRenderer(component string) Renderer {
	return RendererFunc(func(ctx context.Context, in Input) (Output, error) {
		return Output{Component: component, Title: in.Widget.Name}, nil
	})
}

func TestResolve_BeforeInitializeReturnsFallback(t *testing.T) {
	r := New()

	for _, typ := range widget.AllTypes() {
		renderer := r.Resolve(typ)
		if renderer == nil {
			t.Fatalf("Resolve(%q) returned nil", typ)
		}
		out, err := renderer.Render(context.Background(), Input{Widget: api.Widget{Name: "W", WidgetType: typ}})
		if err != nil {
			t.Fatalf("fallback render failed: %v", err)
		}
		if out.Component != "fallback" {
			t.Errorf("Resolve(%q) component = %q, want fallback", typ, out.Component)
		}
	}
}

func TestResolve_IsTotal(t *testing.T) {
	r := New()
	r.Initialize(RegisterBuiltins)

	tags := []string{"redirect", "content", "nope", "", "DATA-VISUALIZATION"}
	for _, tag := range tags {
		if r.ResolveTag(tag) == nil {
			t.Errorf("ResolveTag(%q) returned nil", tag)
		}
	}
	if r.Resolve(widget.Type("unknown")) == nil {
		t.Error("Resolve(unknown) returned nil")
	}
}

func TestRegister_LastWriteWins(t *testing.T) {
	r := New()
	r.Register(widget.TypeContent, stubRenderer("first"))
	r.Register(widget.TypeContent, stubRenderer("second"))

	out, err := r.Resolve(widget.TypeContent).Render(context.Background(), Input{})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if out.Component != "second" {
		t.Errorf("component = %q, want second", out.Component)
	}
}

func TestRegister_IgnoresUnknownTypeAndNil(t *testing.T) {
	r := New()
	r.Register(widget.Type("banner"), stubRenderer("banner"))
	r.Register(widget.TypeEmbed, nil)

	if len(r.ListTypes()) != 0 {
		t.Errorf("expected no registered types, got %v", r.ListTypes())
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	r := New()
	calls := 0
	setup := func(reg *Registry) {
		calls++
		RegisterBuiltins(reg)
	}

	r.Initialize(setup)
	r.Initialize(setup)

	if calls != 1 {
		t.Errorf("setup called %d times, want 1", calls)
	}
	if !r.Initialized() {
		t.Error("expected registry to be initialized")
	}
	if got := len(r.ListTypes()); got != len(widget.AllTypes()) {
		t.Errorf("ListTypes() has %d entries, want %d", got, len(widget.AllTypes()))
	}
	for _, typ := range widget.AllTypes() {
		if !r.Has(typ) {
			t.Errorf("Has(%q) = false", typ)
		}
	}
}

func TestListTypes_Sorted(t *testing.T) {
	r := New()
	r.Register(widget.TypeRedirect, stubRenderer("r"))
	r.Register(widget.TypeContent, stubRenderer("c"))
	r.Register(widget.TypeEmbed, stubRenderer("e"))

	got := r.ListTypes()
	want := []widget.Type{widget.TypeContent, widget.TypeEmbed, widget.TypeRedirect}
	if len(got) != len(want) {
		t.Fatalf("ListTypes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListTypes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuiltinRedirect(t *testing.T) {
	r := New()
	r.Initialize(RegisterBuiltins)

	in := Input{
		Widget: api.Widget{Name: "Docs", WidgetType: widget.TypeRedirect},
		Config: &api.WidgetConfiguration{
			Config: api.ConfigDocument{
				Title:  "Documentation",
				Fields: map[string]any{"redirectUrl": "https://docs.example.com"},
				Styles: api.WidgetStyles{BackgroundColor: "#000"},
			},
		},
	}

	out, err := r.Resolve(widget.TypeRedirect).Render(context.Background(), in)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if out.Component != "redirect" {
		t.Errorf("component = %q, want redirect", out.Component)
	}
	if out.Title != "Documentation" {
		t.Errorf("title = %q, want Documentation", out.Title)
	}
	if out.Props["href"] != "https://docs.example.com" {
		t.Errorf("href = %v", out.Props["href"])
	}
	if out.Styles.BackgroundColor != "#000" {
		t.Errorf("styles = %+v", out.Styles)
	}
}

func TestBuiltin_NilConfigUsesWidgetDefaults(t *testing.T) {
	r := New()
	r.Initialize(RegisterBuiltins)

	out, err := r.Resolve(widget.TypeDataVisualization).Render(context.Background(), Input{
		Widget: api.Widget{Name: "Revenue", WidgetType: widget.TypeDataVisualization},
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if out.Title != "Revenue" {
		t.Errorf("title = %q, want widget name", out.Title)
	}
}

func TestBuiltin_InvalidConfigFails(t *testing.T) {
	r := New()
	r.Initialize(RegisterBuiltins)

	_, err := r.Resolve(widget.TypeEmbed).Render(context.Background(), Input{
		Widget: api.Widget{Name: "Map", WidgetType: widget.TypeEmbed},
		Config: &api.WidgetConfiguration{Config: api.ConfigDocument{}},
	})
	if err == nil {
		t.Error("expected error for embed without embedUrl")
	}
}
