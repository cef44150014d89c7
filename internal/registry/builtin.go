package registry

import (
	"context"
	"fmt"

	"github.com/tobilg/widget-studio/internal/configcache"
	"github.com/tobilg/widget-studio/internal/widget"
)

// RegisterBuiltins registers the default renderer of every widget kind.
// Pass it to Initialize.
func RegisterBuiltins(r *Registry) {
	for _, t := range widget.AllTypes() {
		renderer, ok := widget.Match[Renderer](t, builtinRenderers{})
		if ok {
			r.Register(t, renderer)
		}
	}
}

type builtinRenderers struct{}

func (builtinRenderers) Redirect() Renderer          { return typed("redirect", redirectProps) }
func (builtinRenderers) DataVisualization() Renderer { return typed("chart", chartProps) }
func (builtinRenderers) InteractiveTool() Renderer   { return typed("tool", toolProps) }
func (builtinRenderers) Content() Renderer           { return typed("content", contentProps) }
func (builtinRenderers) Embed() Renderer             { return typed("embed", embedProps) }
func (builtinRenderers) Custom() Renderer            { return typed("custom", customProps) }

// typed builds a renderer that decodes the configuration for the widget's
// kind and hands the typed value to props. A missing configuration renders
// the widget with its defaults.
func typed(component string, props func(cfg any) map[string]any) Renderer {
	return RendererFunc(func(ctx context.Context, in Input) (Output, error) {
		out := Output{
			Component: component,
			Title:     in.Widget.Name,
			Props:     map[string]any{},
		}
		if in.Config == nil {
			return out, nil
		}

		cfg, err := configcache.Decode(in.Widget.WidgetType, in.Config.Config)
		if err != nil {
			return Output{}, fmt.Errorf("decoding %s configuration: %w", in.Widget.WidgetType, err)
		}
		out.Props = props(cfg)
		applyCommon(&out, in.Config)
		return out, nil
	})
}

func redirectProps(cfg any) map[string]any {
	c := cfg.(*configcache.RedirectConfig)
	label := c.ButtonLabel
	if label == "" {
		label = "Open"
	}
	return map[string]any{
		"href":         c.RedirectURL,
		"openInNewTab": c.OpenInNewTab,
		"label":        label,
	}
}

func chartProps(cfg any) map[string]any {
	c := cfg.(*configcache.DataVisualizationConfig)
	return map[string]any{
		"dataSource":     c.DataSource,
		"chartType":      c.ChartType,
		"series":         c.Series,
		"refreshSeconds": c.RefreshSeconds,
	}
}

func toolProps(cfg any) map[string]any {
	c := cfg.(*configcache.InteractiveToolConfig)
	return map[string]any{
		"toolId": c.ToolID,
		"params": c.Params,
	}
}

func contentProps(cfg any) map[string]any {
	c := cfg.(*configcache.ContentConfig)
	format := c.Format
	if format == "" {
		format = "markdown"
	}
	return map[string]any{
		"content": c.Content,
		"format":  format,
	}
}

func embedProps(cfg any) map[string]any {
	c := cfg.(*configcache.EmbedConfig)
	return map[string]any{
		"src":             c.EmbedURL,
		"allowFullscreen": c.AllowFullscreen,
		"sandbox":         c.Sandbox,
	}
}

func customProps(cfg any) map[string]any {
	c := cfg.(*configcache.CustomConfig)
	return map[string]any{
		"component": c.Component,
		"props":     c.Props,
	}
}
