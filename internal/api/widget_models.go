package api

import (
	"encoding/json"
	"time"

	"github.com/tobilg/widget-studio/internal/widget"
)

// Widget is a reusable, typed content unit
type Widget struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	WidgetType   widget.Type      `json:"widgetType"`
	Shape        widget.Shape     `json:"shape"`
	SizeRatio    widget.SizeRatio `json:"sizeRatio"`
	CategoryID   string           `json:"categoryId,omitempty"`
	ThumbnailURL string           `json:"thumbnailUrl,omitempty"`
	IsPublic     bool             `json:"isPublic"`
	IsActive     bool             `json:"isActive"`
	IsPublished  bool             `json:"isPublished"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// WidgetStyles is the visual style sub-document of a configuration
type WidgetStyles struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TitleColor      string `json:"titleColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	BorderColor     string `json:"borderColor,omitempty"`
	BorderRadius    string `json:"borderRadius,omitempty"`
	Padding         string `json:"padding,omitempty"`
}

// ConfigDocument holds the common configuration keys. Any other top-level key
// is type-specific and kept in Fields.
type ConfigDocument struct {
	Title       string         `json:"title,omitempty"`
	Subtitle    string         `json:"subtitle,omitempty"`
	Description string         `json:"description,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
	Styles      WidgetStyles   `json:"styles"`
	Fields      map[string]any `json:"-"`
}

var commonConfigKeys = map[string]bool{
	"title":       true,
	"subtitle":    true,
	"description": true,
	"settings":    true,
	"styles":      true,
}

// UnmarshalJSON splits the document into common keys and type-specific fields.
func (d *ConfigDocument) UnmarshalJSON(data []byte) error {
	type common ConfigDocument
	var c common
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if commonConfigKeys[k] {
			continue
		}
		if c.Fields == nil {
			c.Fields = make(map[string]any)
		}
		c.Fields[k] = v
	}

	*d = ConfigDocument(c)
	return nil
}

// MarshalJSON flattens Fields back next to the common keys.
func (d ConfigDocument) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+5)
	for k, v := range d.Fields {
		if !commonConfigKeys[k] {
			out[k] = v
		}
	}
	if d.Title != "" {
		out["title"] = d.Title
	}
	if d.Subtitle != "" {
		out["subtitle"] = d.Subtitle
	}
	if d.Description != "" {
		out["description"] = d.Description
	}
	if len(d.Settings) > 0 {
		out["settings"] = d.Settings
	}
	out["styles"] = d.Styles
	return json.Marshal(out)
}

// StringField returns a type-specific field as a string, empty when absent.
func (d ConfigDocument) StringField(key string) string {
	if v, ok := d.Fields[key].(string); ok {
		return v
	}
	return ""
}

// WidgetConfiguration is the one-per-widget configuration document
type WidgetConfiguration struct {
	ID        string         `json:"id"`
	WidgetID  string         `json:"widgetId"`
	Name      string         `json:"name"`
	Config    ConfigDocument `json:"config"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// WidgetFilter narrows ListWidgets
type WidgetFilter struct {
	Types      []widget.Type
	CategoryID string
	IsPublic   *bool
	ActiveOnly bool
	Limit      int
	Offset     int
}

// InteractionAction tags a user action inside a rendered widget
type InteractionAction string

const (
	ActionView   InteractionAction = "view"
	ActionClick  InteractionAction = "click"
	ActionSubmit InteractionAction = "submit"
	ActionDrag   InteractionAction = "drag"
)

// Valid reports whether a is a known action tag.
func (a InteractionAction) Valid() bool {
	switch a {
	case ActionView, ActionClick, ActionSubmit, ActionDrag:
		return true
	}
	return false
}

// Interaction is one recorded user action
type Interaction struct {
	WidgetID  string            `json:"widgetId"`
	UserID    string            `json:"userId,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	Action    InteractionAction `json:"action"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Request/Response types

type CreateWidgetRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	WidgetType   string `json:"widgetType"`
	Shape        string `json:"shape,omitempty"`
	SizeRatio    string `json:"sizeRatio,omitempty"`
	CategoryID   string `json:"categoryId,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	IsPublic     bool   `json:"isPublic,omitempty"`
}

type UpdateWidgetRequest struct {
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
	Shape        string `json:"shape,omitempty"`
	SizeRatio    string `json:"sizeRatio,omitempty"`
	CategoryID   string `json:"categoryId,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	IsPublic     *bool  `json:"isPublic,omitempty"`
	IsPublished  *bool  `json:"isPublished,omitempty"`
}

type SaveConfigurationRequest struct {
	Name   string         `json:"name"`
	Config ConfigDocument `json:"config"`
}

type InteractionRequest struct {
	WidgetID  string `json:"widgetId"`
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Action    string `json:"action"`
}

type WidgetsResponse struct {
	Widgets []Widget `json:"widgets"`
}

type WidgetTypesResponse struct {
	Types []string `json:"types"`
}
