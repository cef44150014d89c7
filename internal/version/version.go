package version

// Version information set via ldflags at build time
var (
	Version   = "dev"     // -X 'github.com/tobilg/widget-studio/internal/version.Version=...'
	GitCommit = "unknown" // -X 'github.com/tobilg/widget-studio/internal/version.GitCommit=...'
	BuildDate = "unknown" // -X 'github.com/tobilg/widget-studio/internal/version.BuildDate=...'
)
