package main

import (
	"fmt"

	"github.com/tobilg/widget-studio/internal/config"
	"github.com/tobilg/widget-studio/internal/logger"
	"github.com/tobilg/widget-studio/internal/storage"
)

// openStore loads the environment configuration and opens the database the
// server would use.
func openStore() (*storage.Store, error) {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogJSON)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	store, err := storage.Open(cfg.DatabaseDriver, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
