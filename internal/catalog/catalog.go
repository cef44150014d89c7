// Package catalog loads widget definitions from a YAML file and seeds them
// into the store.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/configcache"
	"github.com/tobilg/widget-studio/internal/logger"
	"github.com/tobilg/widget-studio/internal/widget"
)

// Catalog is the parsed seed file.
type Catalog struct {
	Widgets []Entry `yaml:"widgets"`
}

// Entry is one widget with its optional configuration document.
type Entry struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Type        string         `yaml:"type"`
	Shape       string         `yaml:"shape"`
	SizeRatio   string         `yaml:"sizeRatio"`
	CategoryID  string         `yaml:"categoryId"`
	Public      bool           `yaml:"public"`
	Config      map[string]any `yaml:"config"`
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	for i, e := range c.Widgets {
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("widget %d (%s): %w", i, e.Name, err)
		}
	}
	return &c, nil
}

func (e Entry) validate() error {
	if e.Name == "" {
		return fmt.Errorf("name is required")
	}
	t, err := widget.ParseType(e.Type)
	if err != nil {
		return err
	}
	if e.Shape != "" {
		if _, err := widget.ParseShape(e.Shape); err != nil {
			return err
		}
	}
	if e.SizeRatio != "" {
		if _, err := widget.ParseSizeRatio(e.SizeRatio); err != nil {
			return err
		}
	}
	if e.Config != nil {
		doc, err := e.document()
		if err != nil {
			return err
		}
		if err := configcache.Validate(t, doc); err != nil {
			return err
		}
	}
	return nil
}

// document converts the YAML mapping into a configuration document so that
// common keys and type-specific fields split the same way as over HTTP.
func (e Entry) document() (api.ConfigDocument, error) {
	var doc api.ConfigDocument
	raw, err := json.Marshal(e.Config)
	if err != nil {
		return doc, fmt.Errorf("encoding config: %w", err)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decoding config: %w", err)
	}
	return doc, nil
}

// Store is the subset of storage the seeder writes through.
type Store interface {
	GetWidget(ctx context.Context, id string) (*api.Widget, error)
	CreateWidget(ctx context.Context, w *api.Widget) (*api.Widget, error)
	SaveConfiguration(ctx context.Context, widgetID string, req *api.SaveConfigurationRequest) (*api.WidgetConfiguration, error)
}

// Result counts what Seed did.
type Result struct {
	Created        int
	Skipped        int
	Configurations int
}

// Seed creates every catalog widget that does not exist yet. Entries with an
// id already present in the store are skipped, so seeding is repeatable.
func (c *Catalog) Seed(ctx context.Context, store Store) (Result, error) {
	var res Result
	for _, e := range c.Widgets {
		if e.ID != "" {
			existing, err := store.GetWidget(ctx, e.ID)
			if err != nil {
				return res, fmt.Errorf("checking widget %s: %w", e.ID, err)
			}
			if existing != nil {
				res.Skipped++
				continue
			}
		}

		created, err := store.CreateWidget(ctx, &api.Widget{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			WidgetType:  widget.Type(e.Type),
			Shape:       widget.Shape(e.Shape),
			SizeRatio:   widget.SizeRatio(e.SizeRatio),
			CategoryID:  e.CategoryID,
			IsPublic:    e.Public,
		})
		if err != nil {
			return res, fmt.Errorf("creating widget %s: %w", e.Name, err)
		}
		res.Created++

		if e.Config == nil {
			continue
		}
		doc, err := e.document()
		if err != nil {
			return res, err
		}
		if _, err := store.SaveConfiguration(ctx, created.ID, &api.SaveConfigurationRequest{
			Name:   e.Name,
			Config: doc,
		}); err != nil {
			return res, fmt.Errorf("saving configuration for %s: %w", e.Name, err)
		}
		res.Configurations++
	}

	logger.Info("Catalog seeded",
		"created", res.Created,
		"skipped", res.Skipped,
		"configurations", res.Configurations,
	)
	return res, nil
}
