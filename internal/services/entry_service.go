package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"personalbudget/internal/core"
	"personalbudget/internal/storage"
)

// EventPublisher announces persisted entries to other systems.
type EventPublisher interface {
	PublishEntryCreated(ctx context.Context, e core.StoredEntry) error
	Close() error
}

// EntryService orchestrates entry operations across the store and the event publisher
type EntryService struct {
	store     storage.EntryStore
	publisher EventPublisher
}

// NewEntryService wires a store and an optional publisher (nil disables events).
func NewEntryService(store storage.EntryStore, publisher EventPublisher) *EntryService {
	return &EntryService{
		store:     store,
		publisher: publisher,
	}
}

// Create validates and persists an entry, then publishes an entry-created event.
func (s *EntryService) Create(ctx context.Context, e core.BudgetEntry) (core.StoredEntry, error) {
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return core.StoredEntry{}, err
	}

	stored, err := s.store.Insert(ctx, e)
	if err != nil {
		return core.StoredEntry{}, fmt.Errorf("save budget entry: %w", err)
	}

	if err := s.publishCreated(ctx, stored); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry created message",
			"id", stored.ID, "error", err)
		// Don't fail the request - the entry is already persisted
	}

	return stored, nil
}

// List returns every persisted entry.
func (s *EntryService) List(ctx context.Context) ([]core.StoredEntry, error) {
	entries, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budget entries: %w", err)
	}
	if entries == nil {
		entries = []core.StoredEntry{}
	}
	return entries, nil
}

// Ping reports whether the underlying store is reachable.
func (s *EntryService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *EntryService) publishCreated(ctx context.Context, e core.StoredEntry) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping entry created message")
		return nil
	}
	return s.publisher.PublishEntryCreated(ctx, e)
}

// Close closes both store and publisher
func (s *EntryService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close entry service: %w", err)
	}
	return nil
}
