// Package events carries change notifications between server instances.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Type names a kind of event
type Type string

const (
	// ConfigInvalidated is sent after a widget configuration was saved
	ConfigInvalidated Type = "config.invalidated"
	// VersionPublished is sent after a dashboard version became active
	VersionPublished Type = "version.published"
	// DraftSaved is sent after a draft's placements were replaced
	DraftSaved Type = "draft.saved"
)

// Event is the payload exchanged on a Bus
type Event struct {
	Type          Type      `json:"type"`
	Origin        string    `json:"origin"`
	WidgetID      string    `json:"widgetId,omitempty"`
	DashboardID   string    `json:"dashboardId,omitempty"`
	DraftID       string    `json:"draftId,omitempty"`
	VersionID     string    `json:"versionId,omitempty"`
	VersionNumber int       `json:"versionNumber,omitempty"`
	Placements    int       `json:"placements,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Handler receives events delivered by a Bus
type Handler func(Event)

// Bus publishes events and forwards received ones to a handler.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, h Handler) error
	Close() error
}

func encode(ev Event) ([]byte, error) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	return json.Marshal(ev)
}

func decode(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("decoding event: missing type")
	}
	return ev, nil
}
