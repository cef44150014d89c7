package exporter

import (
	"time"

	"github.com/tobilg/widget-studio/internal/api"
)

// Options configures the export operation
type Options struct {
	DashboardIDs []string // Dashboards to export; empty exports all
	OutputDir    string   // Output directory path
	ActiveOnly   bool     // Export only each dashboard's active version
	CreateZip    bool     // Bundle the snapshots into one ZIP archive
	DryRun       bool     // Preview without exporting
	SkipConfirm  bool     // Skip confirmation prompt
	Verbose      bool     // Show detailed progress
}

// Scope names the exported dashboards for archive names and previews.
func (o *Options) Scope() string {
	switch len(o.DashboardIDs) {
	case 0:
		return "all"
	case 1:
		return o.DashboardIDs[0]
	default:
		return "selected"
	}
}

// Summary contains export statistics
type Summary struct {
	Dashboards  int      // Number of dashboards exported
	Versions    int      // Number of versions exported
	Placements  int      // Number of published placements exported
	Widgets     int      // Number of distinct widgets referenced
	OutputFiles []string // List of output file paths
	TotalSize   int64    // Total size of exported files in bytes
}

// IsEmpty returns true if there's nothing to export
func (s *Summary) IsEmpty() bool {
	return s.Dashboards == 0
}

// Snapshot is the on-disk form of one exported dashboard. Widgets holds
// every widget referenced by an exported placement, keyed by id.
type Snapshot struct {
	ExportedAt time.Time                   `json:"exportedAt"`
	Dashboard  api.Dashboard               `json:"dashboard"`
	Versions   []api.VersionWithPlacements `json:"versions"`
	Widgets    map[string]WidgetSnapshot   `json:"widgets"`
}

// WidgetSnapshot is a widget with its configuration document, if any.
type WidgetSnapshot struct {
	Widget        api.Widget               `json:"widget"`
	Configuration *api.WidgetConfiguration `json:"configuration,omitempty"`
}
