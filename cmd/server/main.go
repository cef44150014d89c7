package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tobilg/widget-studio/internal/config"
	"github.com/tobilg/widget-studio/internal/logger"
	"github.com/tobilg/widget-studio/internal/server"
	"github.com/tobilg/widget-studio/internal/version"
)

func main() {
	// No arguments: start server (default behavior)
	if len(os.Args) < 2 {
		runServer()
		return
	}

	// Dispatch to subcommand
	switch os.Args[1] {
	case "seed":
		cmdSeed(os.Args[2:])
	case "export":
		cmdExport(os.Args[2:])
	case "repair":
		cmdRepair(os.Args[2:])
	case "serve":
		runServer()
	case "-v", "--version", "version":
		printVersion()
	case "-h", "--help", "help":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("Widget Studio %s\n", version.Version)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Date: %s\n", version.BuildDate)
}

func printHelp() {
	fmt.Print(`Widget Studio - widget composition and dashboard versioning service

Usage: widget-studio [command] [options]

Commands:
  serve     Start the API server (default if no command)
  seed      Create widgets from a YAML catalog file
  export    Export published dashboard versions to JSON snapshots
  repair    Run one active-version repair pass over all dashboards

Options:
  -h, --help       Show this help message
  -v, --version    Show version information

Use "widget-studio [command] --help" for command-specific options.

Environment Variables:
  WIDGET_STUDIO_API_PORT             API server port (default: 8080)
  WIDGET_STUDIO_DATABASE_DRIVER      duckdb or sqlite (default: duckdb)
  WIDGET_STUDIO_DATABASE_PATH        Database path (default: ./data/widget-studio.duckdb)
  WIDGET_STUDIO_FRONTEND_URL         Frontend URL for CORS (default: http://localhost:5173)
  WIDGET_STUDIO_CONFIG_CACHE_TTL     Configuration cache TTL (default: 5m)
  WIDGET_STUDIO_RENDER_LOAD_TIMEOUT  Per-widget load timeout before a loading node (default: 750ms)
  WIDGET_STUDIO_SESSION_TTL          Viewer session idle TTL (default: 30m)
  WIDGET_STUDIO_BREAKPOINT_SET       standard or compact (default: standard)
  WIDGET_STUDIO_REPAIR_SCHEDULE      Cron schedule of the repair pass (default: @every 1m)
  WIDGET_STUDIO_TRACKING_BUFFER      Interaction queue size (default: 1024)
  WIDGET_STUDIO_REDIS_ADDR           Redis address for cross-instance events (default: disabled)
  WIDGET_STUDIO_REDIS_CHANNEL        Redis pub/sub channel (default: widget-studio)
  WIDGET_STUDIO_LOG_LEVEL            Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  WIDGET_STUDIO_LOG_JSON             Emit JSON logs (default: false)
`)
}

func runServer() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogJSON)
	log := logger.Logger()

	srv, err := server.New(cfg)
	if err != nil {
		log.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("Received shutdown signal")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during shutdown", "error", err)
		}
		os.Exit(0)
	}()

	log.Info("Widget Studio starting",
		"version", version.Version,
		"database_driver", cfg.DatabaseDriver,
		"database", cfg.DatabasePath,
		"api_port", cfg.APIPort,
		"breakpoints", cfg.BreakpointSet,
		"redis", cfg.RedisEnabled(),
	)

	if err := srv.ListenAndServe(); err != nil {
		log.Error("Server error", "error", err)
		os.Exit(1)
	}
}
