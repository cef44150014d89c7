package widget

import (
	"fmt"
	"strconv"
	"strings"
)

type Shape string

const (
	ShapeSquare    Shape = "square"
	ShapeRectangle Shape = "rectangle"
	ShapeCircle    Shape = "circle"
)

// ParseShape accepts the persisted shape tag. Empty input means rectangle.
func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case "", ShapeRectangle:
		return ShapeRectangle, nil
	case ShapeSquare:
		return ShapeSquare, nil
	case ShapeCircle:
		return ShapeCircle, nil
	}
	return "", fmt.Errorf("unknown widget shape %q", s)
}

// SizeRatio is a width:height ratio from a fixed enumeration.
type SizeRatio string

const (
	Ratio1x1  SizeRatio = "1:1"
	Ratio2x1  SizeRatio = "2:1"
	Ratio1x2  SizeRatio = "1:2"
	Ratio3x2  SizeRatio = "3:2"
	Ratio2x3  SizeRatio = "2:3"
	Ratio4x3  SizeRatio = "4:3"
	Ratio16x9 SizeRatio = "16:9"
)

var sizeRatios = []SizeRatio{Ratio1x1, Ratio2x1, Ratio1x2, Ratio3x2, Ratio2x3, Ratio4x3, Ratio16x9}

// SizeRatios returns the supported ratios.
func SizeRatios() []SizeRatio {
	out := make([]SizeRatio, len(sizeRatios))
	copy(out, sizeRatios)
	return out
}

// ParseSizeRatio accepts a "W:H" string from the enumeration. Empty input means 1:1.
func ParseSizeRatio(s string) (SizeRatio, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ratio1x1, nil
	}
	for _, r := range sizeRatios {
		if SizeRatio(s) == r {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported size ratio %q", s)
}

// Dimensions splits the ratio into its width and height terms.
func (r SizeRatio) Dimensions() (w, h int) {
	parts := strings.SplitN(string(r), ":", 2)
	if len(parts) != 2 {
		return 1, 1
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 1, 1
	}
	return w, h
}

// Box is a nominal width/height in any unit (grid cells or pixels).
type Box struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// EffectiveRenderBox returns the box a widget of the given shape actually
// occupies inside its nominal box. Circles and squares use the shorter side,
// rectangles fill the box.
func EffectiveRenderBox(shape Shape, nominal Box) Box {
	switch shape {
	case ShapeCircle, ShapeSquare:
		side := min(nominal.Width, nominal.Height)
		if side < 0 {
			side = 0
		}
		return Box{Width: side, Height: side}
	default:
		return nominal
	}
}
