package storage

import (
	"context"

	"personalbudget/internal/core"
)

// Ports for the entry persistence adapters.
type (
	// EntryWriter persists a validated entry and returns it with its identifier.
	EntryWriter interface {
		Insert(ctx context.Context, e core.BudgetEntry) (core.StoredEntry, error)
	}

	// EntryLister returns every persisted entry in the order the store yields them.
	EntryLister interface {
		ListAll(ctx context.Context) ([]core.StoredEntry, error)
	}

	// EntryStore is the full contract every backend implements.
	EntryStore interface {
		EntryWriter
		EntryLister
		Ping(ctx context.Context) error
		Close() error
	}
)
