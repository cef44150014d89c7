package configcache

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/widget"
)

// Typed configurations, one per widget kind.

type RedirectConfig struct {
	RedirectURL  string `json:"redirectUrl"`
	OpenInNewTab bool   `json:"openInNewTab,omitempty"`
	ButtonLabel  string `json:"buttonLabel,omitempty"`
}

type DataVisualizationConfig struct {
	DataSource     string   `json:"dataSource"`
	ChartType      string   `json:"chartType"`
	Series         []string `json:"series,omitempty"`
	RefreshSeconds int      `json:"refreshSeconds,omitempty"`
}

type InteractiveToolConfig struct {
	ToolID string         `json:"toolId"`
	Params map[string]any `json:"params,omitempty"`
}

type ContentConfig struct {
	Content string `json:"content"`
	Format  string `json:"format,omitempty"`
}

type EmbedConfig struct {
	EmbedURL        string `json:"embedUrl"`
	AllowFullscreen bool   `json:"allowFullscreen,omitempty"`
	Sandbox         string `json:"sandbox,omitempty"`
}

type CustomConfig struct {
	Component string         `json:"component,omitempty"`
	Props     map[string]any `json:"props,omitempty"`
}

type decodeTargets struct{}

func (decodeTargets) Redirect() any          { return &RedirectConfig{} }
func (decodeTargets) DataVisualization() any { return &DataVisualizationConfig{} }
func (decodeTargets) InteractiveTool() any   { return &InteractiveToolConfig{} }
func (decodeTargets) Content() any           { return &ContentConfig{} }
func (decodeTargets) Embed() any             { return &EmbedConfig{} }
func (decodeTargets) Custom() any            { return &CustomConfig{} }

// Validate checks that doc carries every field the widget kind requires.
func Validate(t widget.Type, doc api.ConfigDocument) error {
	if !t.Valid() {
		return fmt.Errorf("unknown widget type %q", t)
	}
	for _, field := range widget.RequiredFields(t) {
		v, ok := doc.Fields[field]
		if !ok || v == nil {
			return fmt.Errorf("%s configuration requires %q", t, field)
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s configuration requires non-empty %q", t, field)
		}
	}
	return nil
}

// Decode validates doc and converts its type-specific fields into the typed
// configuration for t. The result is a pointer such as *RedirectConfig.
func Decode(t widget.Type, doc api.ConfigDocument) (any, error) {
	if err := Validate(t, doc); err != nil {
		return nil, err
	}
	target, ok := widget.Match[any](t, decodeTargets{})
	if !ok {
		return nil, fmt.Errorf("unknown widget type %q", t)
	}
	if len(doc.Fields) == 0 {
		return target, nil
	}

	raw, err := json.Marshal(doc.Fields)
	if err != nil {
		return nil, fmt.Errorf("encoding %s fields: %w", t, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decoding %s fields: %w", t, err)
	}
	return target, nil
}
