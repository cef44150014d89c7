package grid

import (
	"math"
	"sort"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/widget"
)

// Item is one placement laid out on a breakpoint's column grid.
type Item struct {
	ID   string `json:"i"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
	MinW int    `json:"minW"`
	MaxW int    `json:"maxW"`
}

// Layout maps breakpoint name to its items, each in placement order.
type Layout map[string][]Item

// ToGridLayout lays placements out on every breakpoint in set. Widths are
// clamped to the column count, the narrowest breakpoint stacks every item at
// full width, and rows are compacted upward. Items keep the input order.
func ToGridLayout(placements []api.Placement, set BreakpointSet) Layout {
	layout := make(Layout, len(set))
	smallest := set.Smallest()

	for _, bp := range set {
		cols := max(bp.Columns, 1)
		items := make([]Item, len(placements))
		for i, p := range placements {
			item := Item{
				ID:   p.ID,
				X:    max(p.PositionX, 0),
				Y:    max(p.PositionY, 0),
				W:    clamp(p.Width, 1, cols),
				H:    max(p.Height, 1),
				MinW: 1,
				MaxW: cols,
			}
			if bp.Name == smallest.Name {
				item.X = 0
				item.W = cols
			} else if item.X+item.W > cols {
				item.X = cols - item.W
			}
			items[i] = item
		}
		layout[bp.Name] = Compact(items, cols)
	}
	return layout
}

// FromGridLayout writes each item's geometry back onto the placement with the
// same id. Placements without a matching item are returned unchanged.
func FromGridLayout(items []Item, base []api.Placement) []api.Placement {
	byID := make(map[string]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	out := make([]api.Placement, len(base))
	for i, p := range base {
		if it, ok := byID[p.ID]; ok {
			p.PositionX = it.X
			p.PositionY = it.Y
			p.Width = it.W
			p.Height = it.H
		}
		out[i] = p
	}
	return out
}

// Compact floats items upward to the first free row without overlapping any
// item above them. Items are settled in (y, x) order; the result keeps the
// order of the input slice.
func Compact(items []Item, cols int) []Item {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := items[order[a]], items[order[b]]
		if ia.Y != ib.Y {
			return ia.Y < ib.Y
		}
		return ia.X < ib.X
	})

	out := make([]Item, len(items))
	settled := make([]Item, 0, len(items))
	for _, idx := range order {
		it := items[idx]
		if cols > 0 && it.X+it.W > cols {
			it.X = max(cols-it.W, 0)
		}

		it.Y = min(it.Y, bottom(settled))
		for it.Y > 0 {
			up := it
			up.Y--
			if firstCollision(settled, up) >= 0 {
				break
			}
			it.Y--
		}
		for {
			c := firstCollision(settled, it)
			if c < 0 {
				break
			}
			it.Y = settled[c].Y + settled[c].H
		}

		settled = append(settled, it)
		out[idx] = it
	}
	return out
}

func bottom(items []Item) int {
	b := 0
	for _, it := range items {
		b = max(b, it.Y+it.H)
	}
	return b
}

func firstCollision(items []Item, it Item) int {
	for i, other := range items {
		if collides(other, it) {
			return i
		}
	}
	return -1
}

func collides(a, b Item) bool {
	if a.X+a.W <= b.X || b.X+b.W <= a.X {
		return false
	}
	if a.Y+a.H <= b.Y || b.Y+b.H <= a.Y {
		return false
	}
	return true
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Rect is a pixel rectangle relative to the grid container.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Metrics describes the pixel geometry of a rendered grid.
type Metrics struct {
	ContainerWidth int
	RowHeight      int
	Margin         int
}

// DefaultMetrics matches the viewer's default container.
var DefaultMetrics = Metrics{ContainerWidth: 1200, RowHeight: 80, Margin: 16}

// PixelBox converts an item to pixels for a breakpoint. The widget's shape
// narrows the box through widget.EffectiveRenderBox and the result is
// centered inside the cell area.
func PixelBox(item Item, bp Breakpoint, m Metrics, shape widget.Shape) Rect {
	cols := max(bp.Columns, 1)
	colWidth := float64(m.ContainerWidth-m.Margin*(cols+1)) / float64(cols)

	x := float64(m.Margin) + float64(item.X)*(colWidth+float64(m.Margin))
	y := m.Margin + item.Y*(m.RowHeight+m.Margin)
	w := float64(item.W)*colWidth + float64(max(item.W-1, 0)*m.Margin)
	h := item.H*m.RowHeight + max(item.H-1, 0)*m.Margin

	nominal := widget.Box{Width: int(math.Round(w)), Height: h}
	box := widget.EffectiveRenderBox(shape, nominal)

	return Rect{
		X:      int(math.Round(x)) + (nominal.Width-box.Width)/2,
		Y:      y + (nominal.Height-box.Height)/2,
		Width:  box.Width,
		Height: box.Height,
	}
}
