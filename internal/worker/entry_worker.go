package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"personalbudget/internal/amqp"
	"personalbudget/internal/cache"
	"personalbudget/internal/storage"
)

const (
	defaultSeenSize = 10000
	defaultSeenTTL  = 24 * time.Hour
)

// Summary is the running view of the budget kept by the worker.
type Summary struct {
	Entries int
	Total   float64
}

// EntryWorker follows entry-created events and keeps a running budget summary.
// Redelivered events are recognised by id and counted once. Ids loaded by
// Rebuild are kept in full; the bounded seen cache only tracks live events.
type EntryWorker struct {
	lister storage.EntryLister
	seen   *cache.LRUCache[time.Time]
	logger *slog.Logger

	mu      sync.Mutex
	stored  map[string]struct{}
	summary Summary
}

// NewEntryWorker creates a worker. lister may be nil, in which case Rebuild is a no-op.
func NewEntryWorker(lister storage.EntryLister, seen *cache.LRUCache[time.Time], logger *slog.Logger) *EntryWorker {
	if seen == nil {
		seen = cache.NewLRUCache[time.Time](defaultSeenSize, defaultSeenTTL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EntryWorker{
		lister: lister,
		seen:   seen,
		logger: logger,
		stored: make(map[string]struct{}),
	}
}

// Rebuild recomputes the summary from the store, marking every stored entry as seen.
func (w *EntryWorker) Rebuild(ctx context.Context) error {
	if w.lister == nil {
		return nil
	}

	entries, err := w.lister.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list entries for summary: %w", err)
	}

	var s Summary
	stored := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		stored[e.ID] = struct{}{}
		s.Entries++
		s.Total += e.Amount
	}

	w.mu.Lock()
	w.stored = stored
	w.summary = s
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Rebuilt budget summary", "entries", s.Entries, "total", s.Total)
	return nil
}

// HandleEntryCreated folds one entry-created event into the summary.
func (w *EntryWorker) HandleEntryCreated(ctx context.Context, msg *amqp.EntryCreatedMessage) error {
	if msg.ID == "" {
		return fmt.Errorf("%w: entry created message without id", amqp.ErrUnprocessable)
	}

	w.mu.Lock()
	_, rebuilt := w.stored[msg.ID]
	if rebuilt || !w.seen.SetIfAbsent(msg.ID, time.Now()) {
		w.mu.Unlock()
		w.logger.DebugContext(ctx, "Skipping already counted entry", "entry_id", msg.ID)
		return nil
	}
	w.summary.Entries++
	w.summary.Total += msg.Budget
	s := w.summary
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Budget entry recorded",
		"entry_id", msg.ID,
		"title", msg.Title,
		"budget", msg.Budget,
		"color_code", msg.ColorCode,
		"entries", s.Entries,
		"total", s.Total)
	return nil
}

// Summary returns the current budget summary.
func (w *EntryWorker) Summary() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.summary
}
