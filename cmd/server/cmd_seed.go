package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tobilg/widget-studio/internal/catalog"
)

func cmdSeed(args []string) {
	if err := runSeed(args); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// SeedFlags holds the parsed flags for the seed command
type SeedFlags struct {
	File   string
	DryRun bool
}

func parseSeedFlags(args []string) (*SeedFlags, error) {
	flags := &SeedFlags{}
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.StringVar(&flags.File, "file", "", "YAML catalog file (required)")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Validate the catalog without writing")

	fs.Usage = func() {
		fmt.Print(`Create widgets from a YAML catalog file

Usage: widget-studio seed --file <catalog.yaml> [options]

Widgets whose id already exists are skipped, so seeding is repeatable.

Options:
`)
		printFlags(fs)
	}

	if err := fs.Parse(reorderArgs(fs, args)); err != nil {
		return nil, err
	}
	if flags.File == "" && fs.NArg() > 0 {
		flags.File = fs.Arg(0)
	}
	return flags, nil
}

func runSeed(args []string) error {
	flags, err := parseSeedFlags(args)
	if err != nil {
		return err
	}
	if flags.File == "" {
		return fmt.Errorf("--file is required for seed\nUsage: widget-studio seed --file <catalog.yaml>")
	}

	cat, err := catalog.Load(flags.File)
	if err != nil {
		return err
	}

	if flags.DryRun {
		fmt.Printf("Catalog %s is valid (%d widgets).\n", flags.File, len(cat.Widgets))
		return nil
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := cat.Seed(context.Background(), store)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d widgets (%d skipped, %d configurations).\n", res.Created, res.Skipped, res.Configurations)
	return nil
}
