package exporter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tobilg/widget-studio/internal/api"
)

// Store is the read side of storage the exporter needs.
type Store interface {
	GetDashboards(ctx context.Context) ([]api.Dashboard, error)
	GetDashboard(ctx context.Context, id string) (*api.Dashboard, error)
	ListVersions(ctx context.Context, dashboardID string) ([]api.Version, error)
	GetVersionPlacements(ctx context.Context, versionID string) ([]api.Placement, error)
	GetWidget(ctx context.Context, id string) (*api.Widget, error)
	GetConfiguration(ctx context.Context, widgetID string) (*api.WidgetConfiguration, error)
}

// Exporter writes published dashboard versions to JSON snapshot files
type Exporter struct {
	store   Store
	verbose bool
	out     io.Writer
	now     func() time.Time
}

// NewExporter creates a new Exporter
func NewExporter(store Store, verbose bool) *Exporter {
	return &Exporter{
		store:   store,
		verbose: verbose,
		out:     os.Stdout,
		now:     time.Now,
	}
}

// Preview builds every snapshot without writing anything.
func (e *Exporter) Preview(ctx context.Context, opts Options) (*Summary, error) {
	snapshots, err := e.collect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return summarize(snapshots), nil
}

// Export writes one dashboard-<id>.json snapshot per dashboard into
// opts.OutputDir, or a single ZIP archive holding them when opts.CreateZip
// is set.
func (e *Exporter) Export(ctx context.Context, opts Options) (*Summary, error) {
	snapshots, err := e.collect(ctx, opts)
	if err != nil {
		return nil, err
	}
	summary := summarize(snapshots)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var out sink = &dirSink{dir: opts.OutputDir}
	if opts.CreateZip {
		zs, zerr := newZipSink(filepath.Join(opts.OutputDir, archiveName(opts.Scope(), e.now())))
		if zerr != nil {
			return nil, zerr
		}
		defer func() {
			if err != nil {
				zs.abort()
			}
		}()
		out = zs
	}

	for _, snap := range snapshots {
		if e.verbose {
			fmt.Fprintf(e.out, "Exporting %s (%d versions)... ", snap.Dashboard.Name, len(snap.Versions))
		}
		if err = out.write(snapshotName(snap), snap); err != nil {
			return nil, fmt.Errorf("exporting dashboard %s: %w", snap.Dashboard.ID, err)
		}
		if e.verbose {
			fmt.Fprintln(e.out, "done")
		}
	}

	if summary.OutputFiles, err = out.close(); err != nil {
		return nil, err
	}
	for _, file := range summary.OutputFiles {
		if info, statErr := os.Stat(file); statErr == nil {
			summary.TotalSize += info.Size()
		}
	}

	return summary, nil
}

func (e *Exporter) collect(ctx context.Context, opts Options) ([]*Snapshot, error) {
	dashboards, err := e.dashboards(ctx, opts.DashboardIDs)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*Snapshot, 0, len(dashboards))
	for _, d := range dashboards {
		snap, err := e.snapshot(ctx, d, opts.ActiveOnly)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func (e *Exporter) dashboards(ctx context.Context, ids []string) ([]api.Dashboard, error) {
	if len(ids) == 0 {
		all, err := e.store.GetDashboards(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing dashboards: %w", err)
		}
		return all, nil
	}

	dashboards := make([]api.Dashboard, 0, len(ids))
	for _, id := range ids {
		d, err := e.store.GetDashboard(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading dashboard %s: %w", id, err)
		}
		if d == nil {
			return nil, api.NewNotFoundError("dashboard", id)
		}
		dashboards = append(dashboards, *d)
	}
	return dashboards, nil
}

func (e *Exporter) snapshot(ctx context.Context, d api.Dashboard, activeOnly bool) (*Snapshot, error) {
	versions, err := e.store.ListVersions(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("listing versions of %s: %w", d.ID, err)
	}

	snap := &Snapshot{
		ExportedAt: e.now(),
		Dashboard:  d,
		Versions:   []api.VersionWithPlacements{},
		Widgets:    map[string]WidgetSnapshot{},
	}
	for _, v := range versions {
		if activeOnly && !v.IsActive {
			continue
		}
		placements, err := e.store.GetVersionPlacements(ctx, v.ID)
		if err != nil {
			return nil, fmt.Errorf("loading placements of version %s: %w", v.ID, err)
		}
		snap.Versions = append(snap.Versions, api.VersionWithPlacements{Version: v, Placements: placements})

		for _, p := range placements {
			if _, seen := snap.Widgets[p.WidgetID]; seen {
				continue
			}
			ws, err := e.widget(ctx, p.WidgetID)
			if err != nil {
				return nil, err
			}
			if ws != nil {
				snap.Widgets[p.WidgetID] = *ws
			}
		}
	}
	return snap, nil
}

func (e *Exporter) widget(ctx context.Context, id string) (*WidgetSnapshot, error) {
	w, err := e.store.GetWidget(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading widget %s: %w", id, err)
	}
	if w == nil {
		return nil, nil
	}
	cfg, err := e.store.GetConfiguration(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading configuration of widget %s: %w", id, err)
	}
	return &WidgetSnapshot{Widget: *w, Configuration: cfg}, nil
}

func summarize(snapshots []*Snapshot) *Summary {
	s := &Summary{Dashboards: len(snapshots)}
	for _, snap := range snapshots {
		s.Versions += len(snap.Versions)
		for _, v := range snap.Versions {
			s.Placements += len(v.Placements)
		}
		s.Widgets += len(snap.Widgets)
	}
	return s
}

// PrintPreview prints the export preview
func PrintPreview(w io.Writer, summary *Summary, opts Options) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export Preview")
	fmt.Fprintln(w, "==============")
	fmt.Fprintf(w, "Dashboards: %s\n", opts.Scope())
	if opts.ActiveOnly {
		fmt.Fprintln(w, "Versions:   active only")
	} else {
		fmt.Fprintln(w, "Versions:   all")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Data to export:")
	fmt.Fprintf(w, "  Dashboards: %d\n", summary.Dashboards)
	fmt.Fprintf(w, "  Versions:   %d\n", summary.Versions)
	fmt.Fprintf(w, "  Placements: %d\n", summary.Placements)
	fmt.Fprintf(w, "  Widgets:    %d\n", summary.Widgets)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Output directory: %s\n", opts.OutputDir)
	if opts.CreateZip {
		fmt.Fprintln(w, "Snapshots will be bundled into one ZIP archive")
	}
}

// PrintResult prints the export result
func PrintResult(w io.Writer, summary *Summary, opts Options) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export complete!")
	fmt.Fprintf(w, "Output: %s (%d files, %s)\n", opts.OutputDir, len(summary.OutputFiles), formatSize(summary.TotalSize))
}

// ConfirmExport prompts the user for confirmation
func ConfirmExport(in io.Reader, out io.Writer) bool {
	fmt.Fprintln(out)
	fmt.Fprint(out, "Continue? [y/N] ")

	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// Run executes the full export workflow with preview and confirmation
func Run(ctx context.Context, store Store, opts Options) error {
	exporter := NewExporter(store, opts.Verbose)

	summary, err := exporter.Preview(ctx, opts)
	if err != nil {
		return fmt.Errorf("preview failed: %w", err)
	}

	if summary.IsEmpty() {
		fmt.Fprintln(exporter.out, "No dashboards found to export.")
		return nil
	}

	PrintPreview(exporter.out, summary, opts)

	if opts.DryRun {
		fmt.Fprintln(exporter.out)
		fmt.Fprintln(exporter.out, "Dry run - no files created.")
		return nil
	}

	if !opts.SkipConfirm && !ConfirmExport(os.Stdin, exporter.out) {
		fmt.Fprintln(exporter.out, "Aborted.")
		return nil
	}

	result, err := exporter.Export(ctx, opts)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	PrintResult(exporter.out, result, opts)
	return nil
}

// formatSize formats a byte count as human-readable string
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
