package main

import (
	"log/slog"

	"github.com/tracmeta/catalog/internal/config"
	"github.com/tracmeta/catalog/pkg/logger"
)

// newProcessLogger builds the process-wide logger from cfg.Log via
// pkg/logger (the teacher's structured-logging package), replacing
// cmd/server/main.go's hardwired slog.NewJSONHandler(os.Stdout, ...).
func newProcessLogger(cfg *config.Config) *slog.Logger {
	return logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
}
