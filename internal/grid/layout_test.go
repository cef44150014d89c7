package grid

import (
	"fmt"
	"testing"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/widget"
)

func placement(id string, x, y, w, h int) api.Placement {
	return api.Placement{ID: id, WidgetID: "widget-" + id, PositionX: x, PositionY: y, Width: w, Height: h, LayoutType: api.DefaultLayoutType}
}

func TestToGridLayout_OpsScenario(t *testing.T) {
	placements := []api.Placement{
		placement("a", 0, 0, 3, 2),
		placement("b", 3, 0, 3, 2),
	}

	layout := ToGridLayout(placements, StandardBreakpoints)

	if len(layout) != len(StandardBreakpoints) {
		t.Fatalf("expected %d breakpoints, got %d", len(StandardBreakpoints), len(layout))
	}

	lg := layout["lg"]
	want := []Item{
		{ID: "a", X: 0, Y: 0, W: 3, H: 2, MinW: 1, MaxW: 12},
		{ID: "b", X: 3, Y: 0, W: 3, H: 2, MinW: 1, MaxW: 12},
	}
	for i := range want {
		if lg[i] != want[i] {
			t.Errorf("lg[%d] = %+v, want %+v", i, lg[i], want[i])
		}
	}

	xs := layout["xs"]
	if xs[0].X != 0 || xs[0].W != 4 || xs[0].Y != 0 {
		t.Errorf("xs[0] = %+v", xs[0])
	}
	if xs[1].X != 0 || xs[1].W != 4 || xs[1].Y != 2 {
		t.Errorf("xs[1] = %+v, want stacked below a", xs[1])
	}
}

func TestToGridLayout_MobileFullWidth(t *testing.T) {
	placements := []api.Placement{
		placement("a", 5, 0, 2, 1),
		placement("b", 0, 3, 12, 4),
		placement("c", 8, 1, 1, 1),
		placement("d", -3, -2, 0, 0),
	}

	for _, set := range []BreakpointSet{StandardBreakpoints, CompactBreakpoints} {
		smallest := set.Smallest()
		items := ToGridLayout(placements, set)[smallest.Name]
		for _, it := range items {
			if it.X != 0 || it.W != smallest.Columns {
				t.Errorf("%s item %s = x:%d w:%d, want x:0 w:%d", smallest.Name, it.ID, it.X, it.W, smallest.Columns)
			}
		}
	}
}

func TestToGridLayout_ClampsWidth(t *testing.T) {
	placements := []api.Placement{
		placement("wide", 0, 0, 20, 1),
		placement("edge", 10, 1, 4, 1),
	}

	md := ToGridLayout(placements, StandardBreakpoints)["md"]

	if md[0].W != 10 || md[0].X != 0 {
		t.Errorf("wide = %+v, want w 10", md[0])
	}
	if md[1].X+md[1].W > 10 {
		t.Errorf("edge overflows: %+v", md[1])
	}
	if md[1].MaxW != 10 {
		t.Errorf("edge MaxW = %d, want 10", md[1].MaxW)
	}
}

func TestToGridLayout_OrderStable(t *testing.T) {
	placements := []api.Placement{
		placement("late", 0, 6, 2, 2),
		placement("early", 0, 0, 2, 2),
		placement("mid", 4, 3, 2, 2),
	}

	layout := ToGridLayout(placements, StandardBreakpoints)
	for name, items := range layout {
		for i, p := range placements {
			if items[i].ID != p.ID {
				t.Errorf("%s[%d] = %s, want %s", name, i, items[i].ID, p.ID)
			}
		}
	}

	lg := layout["lg"]
	if lg[1].Y != 0 || lg[0].Y != 2 || lg[2].Y != 0 {
		t.Errorf("unexpected compaction: late y=%d early y=%d mid y=%d", lg[0].Y, lg[1].Y, lg[2].Y)
	}
}

func TestCompact_RemovesGaps(t *testing.T) {
	items := []Item{
		{ID: "a", X: 0, Y: 0, W: 4, H: 2},
		{ID: "b", X: 0, Y: 7, W: 4, H: 1},
		{ID: "c", X: 4, Y: 9, W: 2, H: 3},
	}

	got := Compact(items, 12)

	if got[0].Y != 0 {
		t.Errorf("a.Y = %d, want 0", got[0].Y)
	}
	if got[1].Y != 2 {
		t.Errorf("b.Y = %d, want 2", got[1].Y)
	}
	if got[2].Y != 0 {
		t.Errorf("c.Y = %d, want 0 (no item above it)", got[2].Y)
	}
}

func TestCompact_ResolvesOverlap(t *testing.T) {
	items := []Item{
		{ID: "a", X: 0, Y: 0, W: 4, H: 2},
		{ID: "b", X: 2, Y: 1, W: 4, H: 2},
	}

	got := Compact(items, 12)

	if collides(got[0], got[1]) {
		t.Errorf("items still overlap: %+v %+v", got[0], got[1])
	}
	if got[1].Y != 2 {
		t.Errorf("b.Y = %d, want 2", got[1].Y)
	}
}

func TestFromGridLayout(t *testing.T) {
	base := []api.Placement{
		placement("a", 0, 0, 3, 2),
		placement("b", 3, 0, 3, 2),
		placement("c", 6, 0, 3, 2),
	}
	items := []Item{
		{ID: "b", X: 0, Y: 2, W: 6, H: 3},
		{ID: "a", X: 1, Y: 0, W: 2, H: 2},
		{ID: "zzz", X: 0, Y: 0, W: 1, H: 1},
	}

	got := FromGridLayout(items, base)

	if len(got) != len(base) {
		t.Fatalf("expected %d placements, got %d", len(base), len(got))
	}
	if got[0].PositionX != 1 || got[0].Width != 2 {
		t.Errorf("a = %+v", got[0])
	}
	if got[1].PositionY != 2 || got[1].Width != 6 || got[1].Height != 3 {
		t.Errorf("b = %+v", got[1])
	}
	if got[2] != base[2] {
		t.Errorf("unmatched placement changed: %+v", got[2])
	}
	if base[0].PositionX != 0 {
		t.Error("FromGridLayout must not mutate its input")
	}
}

func TestGridRoundTrip(t *testing.T) {
	var placements []api.Placement
	for i := 0; i < 9; i++ {
		placements = append(placements, placement(fmt.Sprintf("p%d", i), (i*5)%14, i, 1+i%7, 1+i%3))
	}

	for _, set := range []BreakpointSet{StandardBreakpoints, CompactBreakpoints} {
		layout := ToGridLayout(placements, set)
		for _, bp := range set {
			got := FromGridLayout(layout[bp.Name], placements)
			if len(got) != len(placements) {
				t.Fatalf("%s: membership changed", bp.Name)
			}
			for i := range got {
				if got[i].ID != placements[i].ID || got[i].WidgetID != placements[i].WidgetID {
					t.Errorf("%s[%d]: id/widget changed", bp.Name, i)
				}
				if got[i].PositionX < 0 || got[i].PositionX+got[i].Width > bp.Columns {
					t.Errorf("%s[%d]: x=%d w=%d outside %d columns", bp.Name, i, got[i].PositionX, got[i].Width, bp.Columns)
				}
				if got[i].Width < 1 || got[i].Height < 1 || got[i].PositionY < 0 {
					t.Errorf("%s[%d]: invalid geometry %+v", bp.Name, i, got[i])
				}
			}
		}
	}
}

func TestBreakpointSet(t *testing.T) {
	if set, ok := BreakpointSetByName("compact"); !ok || set.Smallest().Columns != 2 {
		t.Errorf("compact set = %+v", set)
	}
	if _, ok := BreakpointSetByName("tiny"); ok {
		t.Error("expected unknown set to report ok=false")
	}
	if bp := StandardBreakpoints.ForWidth(1000); bp.Name != "md" {
		t.Errorf("ForWidth(1000) = %s, want md", bp.Name)
	}
	if bp := StandardBreakpoints.ForWidth(320); bp.Name != "xs" {
		t.Errorf("ForWidth(320) = %s, want xs", bp.Name)
	}
	if bp, ok := StandardBreakpoints.Lookup("sm"); !ok || bp.Columns != 6 {
		t.Errorf("Lookup(sm) = %+v, %v", bp, ok)
	}
}

func TestPixelBox(t *testing.T) {
	item := Item{ID: "a", X: 0, Y: 0, W: 3, H: 2}
	lg, _ := StandardBreakpoints.Lookup("lg")

	rect := PixelBox(item, lg, DefaultMetrics, widget.ShapeRectangle)
	if rect != (Rect{X: 16, Y: 16, Width: 280, Height: 176}) {
		t.Errorf("rectangle = %+v", rect)
	}

	circle := PixelBox(item, lg, DefaultMetrics, widget.ShapeCircle)
	if circle.Width != 176 || circle.Height != 176 {
		t.Errorf("circle size = %dx%d, want 176x176", circle.Width, circle.Height)
	}
	if circle.X != 16+52 || circle.Y != 16 {
		t.Errorf("circle origin = %d,%d, want centered at 68,16", circle.X, circle.Y)
	}
}
