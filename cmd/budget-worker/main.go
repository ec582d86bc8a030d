package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"personalbudget/internal/amqp"
	"personalbudget/internal/cache"
	"personalbudget/internal/cli"
	applog "personalbudget/internal/log"
	"personalbudget/internal/storage"
	"personalbudget/internal/storage/mongodb"
	"personalbudget/internal/storage/sqlite"
	"personalbudget/internal/worker"
)

func main() {
	cfg, logger := cli.MustLoadConfig(applog.ComponentAMQP)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for budget-worker")
		os.Exit(1)
	}
	logger.Info("Starting budget-worker", applog.FieldOperation, applog.OpStartup, "queue", cfg.AMQPQueue)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	lister, closeLister, err := openLister(ctx, cfg.DataBackend, cfg.SQLiteDBPath, mongodb.Config{
		URI:        cfg.MongoURI,
		Database:   cfg.MongoDatabase,
		Collection: cfg.MongoCollection,
	})
	if err != nil {
		logger.Error("Failed to open store for summary", "error", err)
		os.Exit(1)
	}
	defer closeLister()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	seen := cache.NewLRUCache[time.Time](10000, 24*time.Hour)
	caches := cache.NewManager(logger.Logger)
	caches.Register(seen)
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	w := worker.NewEntryWorker(lister, seen, logger.Logger)
	if err := w.Rebuild(ctx); err != nil {
		// Keep consuming; the summary then covers new events only.
		logger.Error("Failed to rebuild summary", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeEntryCreated(gctx, w.HandleEntryCreated)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("budget-worker stopped with error", "error", err)
		os.Exit(1)
	}
	s := w.Summary()
	logger.Info("budget-worker stopped", "entries", s.Entries, "total", s.Total)
}

// openLister opens the durable store the worker rebuilds its summary from.
// The memory backend lives inside budget-server, so there is nothing to read.
func openLister(ctx context.Context, backend, sqlitePath string, mcfg mongodb.Config) (storage.EntryLister, func(), error) {
	switch backend {
	case "sqlite":
		repo, err := sqlite.NewRepository(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case "mongo":
		store, err := mongodb.Connect(ctx, mcfg)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
