package main

import (
	"context"
	"os"

	"personalbudget/internal/backend"
	"personalbudget/internal/cli"
	applog "personalbudget/internal/log"
)

// budget-seed inserts the seed dataset into the configured backend, skipping
// entries that already exist, then logs the full collection.
func main() {
	cfg, logger := cli.MustLoadConfig(applog.ComponentSeed)
	if !backend.BackendType(cfg.DataBackend).IsDurable() {
		logger.Error("budget-seed needs a durable backend; set DATA_BACKEND to sqlite or mongo")
		os.Exit(1)
	}
	cfg.SeedOnStart = true
	logger.Info("Starting budget-seed", applog.FieldOperation, applog.OpStartup, "backend", cfg.DataBackend)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Seeding failed", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	}()

	entries, err := res.Service.List(ctx)
	if err != nil {
		logger.Error("Failed to list entries after seeding", "error", err)
		return
	}
	for _, e := range entries {
		logger.Info("Budget entry",
			applog.FieldEntryID, e.ID,
			applog.FieldTitle, e.Title,
			applog.FieldBudget, e.Amount,
			applog.FieldColorCode, e.ColorCode)
	}
	logger.Info("Seeding complete", applog.FieldCount, len(entries), "backend", cfg.DataBackend)
}
