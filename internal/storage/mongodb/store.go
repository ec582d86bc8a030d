// Package mongodb stores budget entries as documents in a MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"personalbudget/internal/core"
	"personalbudget/internal/storage"
)

const (
	DefaultDatabase   = "personalBudget_db"
	DefaultCollection = "budgetData"
)

// Config describes the connection target.
type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// Store is a storage.EntryStore backed by a MongoDB collection.
type Store struct {
	cli  *mongo.Client
	coll *mongo.Collection
}

// entryDocument is the persisted document shape; field names match the
// documents written by the seeding tool and earlier deployments.
type entryDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Budget    float64            `bson:"budget"`
	ColorCode string             `bson:"colorCode"`
}

// Connect dials MongoDB, verifies the connection and makes sure the unique
// indexes on title and colorCode exist.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	cli, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := cli.Ping(cctx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{
		cli:  cli,
		coll: cli.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := s.ensureIndexes(cctx); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}

	slog.InfoContext(ctx, "Connected to MongoDB",
		"database", cfg.Database,
		"collection", cfg.Collection)

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("title_unique"),
		},
		{
			Keys:    bson.D{{Key: "colorCode", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("colorCode_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("create unique indexes: %w", err)
	}
	return nil
}

// Insert implements storage.EntryWriter
func (s *Store) Insert(ctx context.Context, e core.BudgetEntry) (core.StoredEntry, error) {
	if err := e.Validate(); err != nil {
		return core.StoredEntry{}, err
	}

	doc := entryDocument{Title: e.Title, Budget: e.Amount, ColorCode: e.ColorCode}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.StoredEntry{}, fmt.Errorf("%w: %v", core.ErrDuplicateKey, err)
		}
		return core.StoredEntry{}, fmt.Errorf("%w: insert budget entry: %v", core.ErrStoreUnavailable, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return core.StoredEntry{}, fmt.Errorf("%w: unexpected inserted id %T", core.ErrStoreUnavailable, res.InsertedID)
	}

	return core.StoredEntry{ID: oid.Hex(), BudgetEntry: e}, nil
}

// ListAll implements storage.EntryLister
func (s *Store) ListAll(ctx context.Context) ([]core.StoredEntry, error) {
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("%w: find budget entries: %v", core.ErrStoreUnavailable, err)
	}
	defer cur.Close(ctx)

	var docs []entryDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode budget entries: %v", core.ErrStoreUnavailable, err)
	}

	entries := make([]core.StoredEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, core.StoredEntry{
			ID: d.ID.Hex(),
			BudgetEntry: core.BudgetEntry{
				Title:     d.Title,
				Amount:    d.Budget,
				ColorCode: d.ColorCode,
			},
		})
	}
	return entries, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.cli.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.cli.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

var _ storage.EntryStore = (*Store)(nil)
