// Package render turns placed widgets into renderable nodes for viewers.
package render

import (
	"github.com/tobilg/widget-studio/internal/grid"
	"github.com/tobilg/widget-studio/internal/registry"
	"github.com/tobilg/widget-studio/internal/widget"
)

// State is the lifecycle state of a rendered node.
type State string

const (
	StateReady   State = "ready"
	StateLoading State = "loading"
	StateError   State = "error"
)

// Node is one widget as the viewer should draw it. Exactly one of Output
// (ready) or Error (error) is set; loading nodes carry neither.
type Node struct {
	PlacementID string           `json:"placementId,omitempty"`
	WidgetID    string           `json:"widgetId"`
	WidgetType  widget.Type      `json:"widgetType,omitempty"`
	State       State            `json:"state"`
	Rect        grid.Rect        `json:"rect"`
	Output      *registry.Output `json:"output,omitempty"`
	Error       string           `json:"error,omitempty"`
	// Recoverable marks errors that may go away on retry, such as a
	// failed configuration fetch.
	Recoverable bool `json:"recoverable,omitempty"`
}

func errorNode(widgetID, msg string, recoverable bool) Node {
	return Node{
		WidgetID:    widgetID,
		State:       StateError,
		Error:       msg,
		Recoverable: recoverable,
	}
}
