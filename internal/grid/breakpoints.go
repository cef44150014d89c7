package grid

import "strings"

// Breakpoint is a named screen-size band with its own column count.
type Breakpoint struct {
	Name     string `json:"name"`
	Columns  int    `json:"columns"`
	MinWidth int    `json:"minWidth"`
}

// BreakpointSet is ordered from the widest band to the narrowest.
type BreakpointSet []Breakpoint

// StandardBreakpoints is used by the editor and the viewer.
var StandardBreakpoints = BreakpointSet{
	{Name: "lg", Columns: 12, MinWidth: 1200},
	{Name: "md", Columns: 10, MinWidth: 996},
	{Name: "sm", Columns: 6, MinWidth: 768},
	{Name: "xs", Columns: 4, MinWidth: 0},
}

// CompactBreakpoints is used by embedded surfaces with less room.
var CompactBreakpoints = BreakpointSet{
	{Name: "lg", Columns: 12, MinWidth: 1200},
	{Name: "md", Columns: 8, MinWidth: 996},
	{Name: "sm", Columns: 6, MinWidth: 768},
	{Name: "xs", Columns: 2, MinWidth: 0},
}

// BreakpointSetByName returns "standard" or "compact". Unknown names fall back
// to the standard set with ok == false.
func BreakpointSetByName(name string) (BreakpointSet, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard":
		return StandardBreakpoints, true
	case "compact":
		return CompactBreakpoints, true
	}
	return StandardBreakpoints, false
}

// Lookup finds a breakpoint by name.
func (s BreakpointSet) Lookup(name string) (Breakpoint, bool) {
	for _, bp := range s {
		if bp.Name == name {
			return bp, true
		}
	}
	return Breakpoint{}, false
}

// Smallest returns the narrowest band.
func (s BreakpointSet) Smallest() Breakpoint {
	if len(s) == 0 {
		return Breakpoint{}
	}
	return s[len(s)-1]
}

// ForWidth returns the widest band whose MinWidth fits in width pixels.
func (s BreakpointSet) ForWidth(width int) Breakpoint {
	for _, bp := range s {
		if width >= bp.MinWidth {
			return bp
		}
	}
	return s.Smallest()
}

// Names returns the breakpoint names in order.
func (s BreakpointSet) Names() []string {
	names := make([]string, len(s))
	for i, bp := range s {
		names[i] = bp.Name
	}
	return names
}
