package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"personalbudget/internal/config"
)

func TestLoadConfigFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=4321\nLOG_LEVEL=debug\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// godotenv never overrides variables that are already set, so clear them
	// for the test and unset them afterwards.
	for _, key := range []string{"PORT", "LOG_LEVEL", "DATA_BACKEND"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "4321" || cfg.Level() != slog.LevelDebug {
		t.Fatalf("unexpected config: port=%s level=%v", cfg.Port, cfg.Level())
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sheets")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestOpenBackendMemory(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory", LogLevel: "error"}
	logger := SetupLogger(cfg, "test")
	res, err := OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
}

func TestOpenBackendInvalid(t *testing.T) {
	cfg := &config.Config{DataBackend: "sheets"}
	if _, err := OpenBackend(context.Background(), cfg, SetupLogger(nil, "test")); err == nil {
		t.Fatal("expected error")
	}
}
