package widget

import (
	"fmt"
	"strings"
)

// Type is the closed set of widget kinds. Behaviour that depends on the kind
// goes through Match so the compiler flags every switch site when a kind is added.
type Type string

const (
	TypeRedirect          Type = "redirect"
	TypeDataVisualization Type = "data-visualization"
	TypeInteractiveTool   Type = "interactive-tool"
	TypeContent           Type = "content"
	TypeEmbed             Type = "embed"
	TypeCustom            Type = "custom"
)

var allTypes = []Type{
	TypeRedirect,
	TypeDataVisualization,
	TypeInteractiveTool,
	TypeContent,
	TypeEmbed,
	TypeCustom,
}

// AllTypes returns every widget kind in declaration order.
func AllTypes() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// ParseType converts a persisted tag into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range allTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown widget type %q", s)
}

// Valid reports whether t is one of the known kinds.
func (t Type) Valid() bool {
	_, err := ParseType(string(t))
	return err == nil
}

func (t Type) String() string {
	return string(t)
}

// Cases has one method per widget kind. Implementations that miss a kind
// do not satisfy the interface.
type Cases[T any] interface {
	Redirect() T
	DataVisualization() T
	InteractiveTool() T
	Content() T
	Embed() T
	Custom() T
}

// Match dispatches t to the matching case. ok is false for a Type outside the
// closed set, in which case the zero value is returned.
func Match[T any](t Type, c Cases[T]) (result T, ok bool) {
	switch t {
	case TypeRedirect:
		return c.Redirect(), true
	case TypeDataVisualization:
		return c.DataVisualization(), true
	case TypeInteractiveTool:
		return c.InteractiveTool(), true
	case TypeContent:
		return c.Content(), true
	case TypeEmbed:
		return c.Embed(), true
	case TypeCustom:
		return c.Custom(), true
	}
	return result, false
}

type requiredFieldCases struct{}

func (requiredFieldCases) Redirect() []string          { return []string{"redirectUrl"} }
func (requiredFieldCases) DataVisualization() []string { return []string{"dataSource", "chartType"} }
func (requiredFieldCases) InteractiveTool() []string   { return []string{"toolId"} }
func (requiredFieldCases) Content() []string           { return []string{"content"} }
func (requiredFieldCases) Embed() []string             { return []string{"embedUrl"} }
func (requiredFieldCases) Custom() []string            { return nil }

// RequiredFields lists the configuration keys a document must carry for t.
func RequiredFields(t Type) []string {
	fields, _ := Match[[]string](t, requiredFieldCases{})
	return fields
}
