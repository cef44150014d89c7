package websocket

import "time"

type MessageType string

const (
	MessageTypeVersionPublished     MessageType = "version_published"
	MessageTypeDraftSaved           MessageType = "draft_saved"
	MessageTypeConfigurationUpdated MessageType = "configuration_updated"
)

// Message is pushed to viewers. A message with a DashboardID only reaches
// clients watching that dashboard; one without reaches everybody.
type Message struct {
	Type        MessageType `json:"type"`
	DashboardID string      `json:"dashboardId,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// VersionPublishedPayload tells viewers to reload the live layout.
type VersionPublishedPayload struct {
	VersionID     string `json:"versionId"`
	VersionNumber int    `json:"versionNumber"`
	Author        string `json:"author,omitempty"`
}

// DraftSavedPayload tells other editors that the stored draft changed.
type DraftSavedPayload struct {
	DraftID    string `json:"draftId"`
	Placements int    `json:"placements"`
}

// ConfigurationUpdatedPayload tells viewers to re-fetch a widget's configuration.
type ConfigurationUpdatedPayload struct {
	WidgetID string `json:"widgetId"`
}

func NewVersionPublishedMessage(dashboardID string, payload VersionPublishedPayload) Message {
	return Message{
		Type:        MessageTypeVersionPublished,
		DashboardID: dashboardID,
		Timestamp:   time.Now(),
		Payload:     payload,
	}
}

func NewDraftSavedMessage(dashboardID string, payload DraftSavedPayload) Message {
	return Message{
		Type:        MessageTypeDraftSaved,
		DashboardID: dashboardID,
		Timestamp:   time.Now(),
		Payload:     payload,
	}
}

func NewConfigurationUpdatedMessage(widgetID string) Message {
	return Message{
		Type:      MessageTypeConfigurationUpdated,
		Timestamp: time.Now(),
		Payload:   ConfigurationUpdatedPayload{WidgetID: widgetID},
	}
}

// clientCommand is what a client may send: {"type":"subscribe","dashboardId":"..."}.
// An empty dashboard id subscribes to everything.
type clientCommand struct {
	Type        string `json:"type"`
	DashboardID string `json:"dashboardId"`
}
