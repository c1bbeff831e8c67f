// Package cli provides common initialization shared by cmd/cloudexpense
// and cmd/cloudexpense-worker.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"cloudexpense/internal/config"
	"cloudexpense/internal/spending"
	"cloudexpense/internal/spending/csvfile"
	"cloudexpense/internal/spending/sqlite"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSpendingStore builds the spending store for the configured backend.
// Returns the store and a close function, or exits the process on failure.
func InitSpendingStore(logger *slog.Logger, cfg *config.Config) (spending.Store, func()) {
	switch cfg.DataBackend {
	case "sqlite":
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite spending store", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		logger.Info("Initialized sqlite spending backend", "path", cfg.SQLiteDBPath)
		return store, func() { store.Close() }
	default:
		store, err := csvfile.New(cfg.SpendingCSVPath)
		if err != nil {
			logger.Error("Failed to initialize CSV spending store", "error", err, "path", cfg.SpendingCSVPath)
			os.Exit(1)
		}
		logger.Info("Initialized csv spending backend", "path", cfg.SpendingCSVPath)
		return store, func() {}
	}
}
