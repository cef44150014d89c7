package main

import (
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// captureOutput captures stdout during function execution
func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestPrintVersion(t *testing.T) {
	output := captureOutput(printVersion)

	for _, s := range []string{"Widget Studio", "Git Commit", "Build Date"} {
		if !strings.Contains(output, s) {
			t.Errorf("expected version output to contain %q", s)
		}
	}
}

func TestPrintHelp(t *testing.T) {
	output := captureOutput(printHelp)

	expectedStrings := []string{
		"Widget Studio",
		"Usage:",
		"Commands:",
		"serve",
		"seed",
		"export",
		"repair",
		"--help",
		"--version",
		"Environment Variables:",
		"WIDGET_STUDIO_API_PORT",
		"WIDGET_STUDIO_DATABASE_DRIVER",
		"WIDGET_STUDIO_REDIS_ADDR",
	}

	for _, s := range expectedStrings {
		if !strings.Contains(output, s) {
			t.Errorf("expected help output to contain %q", s)
		}
	}
}

func TestPrintFlags(t *testing.T) {
	fs := newTestFlagSet()

	output := captureOutput(func() {
		printFlags(fs)
	})

	for _, s := range []string{"--string-flag", "--bool-flag", "--int-flag", "A string flag"} {
		if !strings.Contains(output, s) {
			t.Errorf("expected output to contain %q", s)
		}
	}
}

func TestFlagTypeName(t *testing.T) {
	fs := newTestFlagSet()
	fs.Duration("duration-flag", time.Minute, "A duration flag")

	want := map[string]string{
		"string-flag":   "string",
		"int-flag":      "int",
		"duration-flag": "duration",
	}

	fs.VisitAll(func(f *flag.Flag) {
		expected, ok := want[f.Name]
		if !ok {
			return
		}
		if got := flagTypeName(f); got != expected {
			t.Errorf("flagTypeName(%s) = %q, want %q", f.Name, got, expected)
		}
	})
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"123", true},
		{"0", true},
		{"", false},
		{"abc", false},
		{"12.3", false},
		{"-1", false},
		{"1a", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := isNumeric(tt.input); got != tt.expected {
				t.Errorf("isNumeric(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

// newTestFlagSet creates a flag set for testing
func newTestFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String("string-flag", "", "A string flag")
	fs.Bool("bool-flag", false, "A boolean flag")
	fs.Int("int-flag", 0, "An integer flag")
	return fs
}

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "positional first",
			input:    []string{"d1", "--string-flag", "./export"},
			expected: []string{"--string-flag", "./export", "d1"},
		},
		{
			name:     "flags first",
			input:    []string{"--string-flag", "./export", "d1"},
			expected: []string{"--string-flag", "./export", "d1"},
		},
		{
			name:     "bool flag does not consume positional",
			input:    []string{"--bool-flag", "d1", "--string-flag", "out"},
			expected: []string{"--bool-flag", "--string-flag", "out", "d1"},
		},
		{
			name:     "inline value",
			input:    []string{"d1", "--string-flag=out", "d2"},
			expected: []string{"--string-flag=out", "d1", "d2"},
		},
		{
			name:     "empty args",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "only positional",
			input:    []string{"d1"},
			expected: []string{"d1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := reorderArgs(newTestFlagSet(), tt.input)

			if len(result) != len(tt.expected) {
				t.Fatalf("reorderArgs(%v) = %v, want %v", tt.input, result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("reorderArgs(%v) = %v, want %v", tt.input, result, tt.expected)
					break
				}
			}
		})
	}
}

func TestParseExportFlags(t *testing.T) {
	flags, err := parseExportFlags([]string{"d1", "--output", "./out", "--zip", "d2", "--active-only"})
	if err != nil {
		t.Fatalf("parseExportFlags() error = %v", err)
	}
	if flags.Output != "./out" || !flags.Zip || !flags.ActiveOnly {
		t.Errorf("flags = %+v", flags)
	}
	if len(flags.Dashboards) != 2 || flags.Dashboards[0] != "d1" || flags.Dashboards[1] != "d2" {
		t.Errorf("dashboards = %v, want [d1 d2]", flags.Dashboards)
	}
}

func TestRunExportValidation(t *testing.T) {
	var err error
	captureOutput(func() {
		err = runExport([]string{"d1"})
	})
	if err == nil || !strings.Contains(err.Error(), "--output is required") {
		t.Errorf("expected missing --output error, got %v", err)
	}
}

func TestParseSeedFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFile string
		wantDry  bool
	}{
		{"flag", []string{"--file", "catalog.yaml"}, "catalog.yaml", false},
		{"positional", []string{"catalog.yaml", "--dry-run"}, "catalog.yaml", true},
		{"none", []string{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, err := parseSeedFlags(tt.args)
			if err != nil {
				t.Fatalf("parseSeedFlags() error = %v", err)
			}
			if flags.File != tt.wantFile || flags.DryRun != tt.wantDry {
				t.Errorf("flags = %+v", flags)
			}
		})
	}
}

func TestRunSeed_DryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	catalog := `widgets:
  - id: docs
    name: Docs
    type: redirect
    config:
      redirectUrl: https://docs.example.com
`
	if err := os.WriteFile(path, []byte(catalog), 0644); err != nil {
		t.Fatal(err)
	}

	var err error
	output := captureOutput(func() {
		err = runSeed([]string{"--file", path, "--dry-run"})
	})
	if err != nil {
		t.Fatalf("runSeed() error = %v", err)
	}
	if !strings.Contains(output, "is valid (1 widgets)") {
		t.Errorf("output = %q", output)
	}
}

func TestRunSeed_RequiresFile(t *testing.T) {
	if err := runSeed(nil); err == nil || !strings.Contains(err.Error(), "--file is required") {
		t.Errorf("expected missing --file error, got %v", err)
	}
}

func TestRunSeedAndRepair(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WIDGET_STUDIO_DATABASE_DRIVER", "sqlite")
	t.Setenv("WIDGET_STUDIO_DATABASE_PATH", filepath.Join(dir, "cli.sqlite"))

	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte("widgets:\n  - id: notes\n    name: Notes\n    type: content\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var err error
	output := captureOutput(func() {
		err = runSeed([]string{path})
	})
	if err != nil {
		t.Fatalf("runSeed() error = %v", err)
	}
	if !strings.Contains(output, "Seeded 1 widgets (0 skipped") {
		t.Errorf("seed output = %q", output)
	}

	output = captureOutput(func() {
		err = runRepair([]string{"--timeout", "10s"})
	})
	if err != nil {
		t.Fatalf("runRepair() error = %v", err)
	}
	if !strings.Contains(output, "0 dashboards repaired") {
		t.Errorf("repair output = %q", output)
	}
}
