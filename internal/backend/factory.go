package backend

import (
	"context"
	"fmt"
	"log/slog"

	"personalbudget/internal/amqp"
	"personalbudget/internal/seed"
	"personalbudget/internal/services"
	"personalbudget/internal/storage"
	"personalbudget/internal/storage/memory"
	"personalbudget/internal/storage/mongodb"
	"personalbudget/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger

	// dialPublisher is swapped in tests to avoid a real broker.
	dialPublisher func(url, exchange, queue string) (services.EventPublisher, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger:        logger,
		dialPublisher: dialAMQP,
	}
}

func dialAMQP(url, exchange, queue string) (services.EventPublisher, error) {
	client, err := amqp.NewClient(url, exchange, queue)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	if config.SeedOnStart {
		if err := f.seed(ctx, store, config.SeedFile); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	publisher := f.openPublisher(config)
	entryService := services.NewEntryService(store, publisher)

	f.logger.Info("Initialized backend",
		"backend", config.Type.String(),
		"amqp_enabled", publisher != nil,
		"seeded", config.SeedOnStart)

	return &BackendResult{
		Service: entryService,
		Cleanup: entryService.Close,
	}, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (storage.EntryStore, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MongoBackend:
		store, err := mongodb.Connect(ctx, mongodb.Config{
			URI:            config.MongoURI,
			Database:       config.MongoDatabase,
			Collection:     config.MongoCollection,
			ConnectTimeout: config.MongoConnectTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		f.logger.Info("Connected to MongoDB store",
			"database", config.MongoDatabase,
			"collection", config.MongoCollection)
		return store, nil
	case MemoryBackend:
		f.logger.Info("Using in-memory store, entries are lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) seed(ctx context.Context, store storage.EntryWriter, path string) error {
	entries, err := seed.Entries(path)
	if err != nil {
		return fmt.Errorf("failed to load seed entries: %w", err)
	}
	res, err := seed.Run(ctx, store, entries)
	if err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}
	f.logger.Info("Seeded store", "inserted", len(res.Inserted), "skipped", res.Skipped)
	return nil
}

// openPublisher returns nil when events are disabled or the broker is unreachable.
func (f *DefaultFactory) openPublisher(config Config) services.EventPublisher {
	if config.AMQPURL == "" {
		return nil
	}
	publisher, err := f.dialPublisher(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without entry events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return publisher
}
