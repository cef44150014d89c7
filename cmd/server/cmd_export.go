package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tobilg/widget-studio/internal/exporter"
)

func cmdExport(args []string) {
	if err := runExport(args); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// ExportFlags holds the parsed flags for the export command
type ExportFlags struct {
	Output     string
	Dashboards []string
	ActiveOnly bool
	Zip        bool
	DryRun     bool
	Verbose    bool
	Yes        bool
}

func newExportFlagSet(flags *ExportFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.StringVar(&flags.Output, "output", "", "Output directory (required)")
	fs.BoolVar(&flags.ActiveOnly, "active-only", false, "Export only the active version of each dashboard")
	fs.BoolVar(&flags.Zip, "zip", false, "Create ZIP archive of exported files")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Preview what would be exported")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Show detailed progress")
	fs.BoolVar(&flags.Yes, "yes", false, "Skip confirmation prompts")

	fs.Usage = func() {
		fmt.Print(`Export published dashboard versions to JSON snapshots

Usage: widget-studio export [dashboard-id ...] --output <directory> [options]

Arguments:
  dashboard-id  Dashboards to export (default: all)

Options:
`)
		printFlags(fs)
	}
	return fs
}

// parseExportFlags parses command line arguments into ExportFlags
func parseExportFlags(args []string) (*ExportFlags, error) {
	flags := &ExportFlags{}
	fs := newExportFlagSet(flags)

	if err := fs.Parse(reorderArgs(fs, args)); err != nil {
		return nil, err
	}

	flags.Dashboards = fs.Args()
	return flags, nil
}

func runExport(args []string) error {
	flags, err := parseExportFlags(args)
	if err != nil {
		return err
	}

	if flags.Output == "" {
		return fmt.Errorf("--output is required for export\nUsage: widget-studio export [dashboard-id ...] --output <directory>")
	}

	opts := exporter.Options{
		DashboardIDs: flags.Dashboards,
		OutputDir:    flags.Output,
		ActiveOnly:   flags.ActiveOnly,
		CreateZip:    flags.Zip,
		DryRun:       flags.DryRun,
		SkipConfirm:  flags.Yes,
		Verbose:      flags.Verbose,
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return exporter.Run(context.Background(), store, opts)
}
