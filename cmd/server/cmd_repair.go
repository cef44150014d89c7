package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tobilg/widget-studio/internal/publish"
)

func cmdRepair(args []string) {
	if err := runRepair(args); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func parseRepairFlags(args []string) (time.Duration, error) {
	fs := flag.NewFlagSet("repair", flag.ContinueOnError)
	timeout := fs.Duration("timeout", time.Minute, "Abort the pass after this long")

	fs.Usage = func() {
		fmt.Print(`Run one active-version repair pass over all dashboards

Usage: widget-studio repair [options]

Every dashboard with versions ends with exactly one active version.

Options:
`)
		printFlags(fs)
	}

	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	return *timeout, nil
}

func runRepair(args []string) error {
	timeout, err := parseRepairFlags(args)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	changed, err := publish.NewService(store).RepairAll(ctx)
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}
	fmt.Printf("Repair complete: %d dashboards repaired.\n", changed)
	return nil
}
