package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"personalbudget/internal/core"
	"personalbudget/internal/storage"
)

const (
	insertEntrySQL = `INSERT INTO budget_entries (title, budget, color_code) VALUES (?, ?, ?)`
	listEntriesSQL = `SELECT id, title, budget, color_code FROM budget_entries ORDER BY id`
)

// Repository stores budget entries in a SQLite database.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the database at dbPath and migrates it.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Insert implements storage.EntryWriter
func (r *Repository) Insert(ctx context.Context, e core.BudgetEntry) (core.StoredEntry, error) {
	if err := e.Validate(); err != nil {
		return core.StoredEntry{}, err
	}

	res, err := r.db.ExecContext(ctx, insertEntrySQL, e.Title, e.Amount, e.ColorCode)
	if err != nil {
		return core.StoredEntry{}, classify(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.StoredEntry{}, fmt.Errorf("%w: last insert id: %v", core.ErrStoreUnavailable, err)
	}

	slog.InfoContext(ctx, "Budget entry saved to SQLite",
		"id", id,
		"title", e.Title,
		"budget", e.Amount,
		"color_code", e.ColorCode)

	return core.StoredEntry{ID: strconv.FormatInt(id, 10), BudgetEntry: e}, nil
}

// ListAll implements storage.EntryLister
func (r *Repository) ListAll(ctx context.Context) ([]core.StoredEntry, error) {
	rows, err := r.db.QueryContext(ctx, listEntriesSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: list budget entries: %v", core.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	entries := make([]core.StoredEntry, 0)
	for rows.Next() {
		var (
			id int64
			se core.StoredEntry
		)
		if err := rows.Scan(&id, &se.Title, &se.Amount, &se.ColorCode); err != nil {
			return nil, fmt.Errorf("%w: scan budget entry: %v", core.ErrStoreUnavailable, err)
		}
		se.ID = strconv.FormatInt(id, 10)
		entries = append(entries, se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate budget entries: %v", core.ErrStoreUnavailable, err)
	}

	return entries, nil
}

// classify maps driver errors onto the core error kinds.
func classify(err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", core.ErrDuplicateKey, err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %v", core.ErrValidation, err)
		}
	}
	return fmt.Errorf("%w: insert budget entry: %v", core.ErrStoreUnavailable, err)
}

var _ storage.EntryStore = (*Repository)(nil)
