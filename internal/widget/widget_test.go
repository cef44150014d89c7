package widget

import "testing"

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"redirect", TypeRedirect, false},
		{"Data-Visualization", TypeDataVisualization, false},
		{" embed ", TypeEmbed, false},
		{"custom", TypeCustom, false},
		{"chart", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

type nameCases struct{}

func (nameCases) Redirect() string          { return "r" }
func (nameCases) DataVisualization() string { return "dv" }
func (nameCases) InteractiveTool() string   { return "it" }
func (nameCases) Content() string           { return "c" }
func (nameCases) Embed() string             { return "e" }
func (nameCases) Custom() string            { return "x" }

func TestMatch_CoversEveryType(t *testing.T) {
	seen := make(map[string]bool)
	for _, typ := range AllTypes() {
		got, ok := Match[string](typ, nameCases{})
		if !ok {
			t.Fatalf("Match(%q) not handled", typ)
		}
		if seen[got] {
			t.Errorf("Match(%q) returned duplicate case %q", typ, got)
		}
		seen[got] = true
	}

	if _, ok := Match[string](Type("unknown"), nameCases{}); ok {
		t.Error("expected unknown type to be unmatched")
	}
}

func TestRequiredFields(t *testing.T) {
	if got := RequiredFields(TypeRedirect); len(got) != 1 || got[0] != "redirectUrl" {
		t.Errorf("RequiredFields(redirect) = %v", got)
	}
	if got := RequiredFields(TypeDataVisualization); len(got) != 2 {
		t.Errorf("RequiredFields(data-visualization) = %v", got)
	}
	if got := RequiredFields(TypeCustom); len(got) != 0 {
		t.Errorf("RequiredFields(custom) = %v, want none", got)
	}
}

func TestSizeRatio(t *testing.T) {
	if len(SizeRatios()) != 7 {
		t.Fatalf("expected 7 size ratios, got %d", len(SizeRatios()))
	}

	r, err := ParseSizeRatio("16:9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w, h := r.Dimensions(); w != 16 || h != 9 {
		t.Errorf("Dimensions() = %d:%d, want 16:9", w, h)
	}

	if r, _ := ParseSizeRatio(""); r != Ratio1x1 {
		t.Errorf("empty ratio = %q, want 1:1", r)
	}
	if _, err := ParseSizeRatio("5:4"); err == nil {
		t.Error("expected error for unsupported ratio")
	}
}

func TestParseShape(t *testing.T) {
	if s, _ := ParseShape(""); s != ShapeRectangle {
		t.Errorf("empty shape = %q, want rectangle", s)
	}
	if s, _ := ParseShape("Circle"); s != ShapeCircle {
		t.Errorf("ParseShape(Circle) = %q", s)
	}
	if _, err := ParseShape("hexagon"); err == nil {
		t.Error("expected error for unknown shape")
	}
}

func TestEffectiveRenderBox(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		in    Box
		want  Box
	}{
		{"circle wide", ShapeCircle, Box{Width: 300, Height: 200}, Box{Width: 200, Height: 200}},
		{"circle tall", ShapeCircle, Box{Width: 4, Height: 6}, Box{Width: 4, Height: 4}},
		{"square", ShapeSquare, Box{Width: 5, Height: 3}, Box{Width: 3, Height: 3}},
		{"rectangle", ShapeRectangle, Box{Width: 5, Height: 3}, Box{Width: 5, Height: 3}},
		{"negative", ShapeCircle, Box{Width: -1, Height: 3}, Box{Width: 0, Height: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectiveRenderBox(tt.shape, tt.in); got != tt.want {
				t.Errorf("EffectiveRenderBox() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
