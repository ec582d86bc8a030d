package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"personalbudget/internal/core"
	"personalbudget/internal/storage"
)

// Store keeps entries in process memory. Titles and color codes are unique.
type Store struct {
	mu     sync.Mutex
	items  []core.StoredEntry
	titles map[string]struct{}
	colors map[string]struct{}
	closed bool
	newID  func() string
}

func New() *Store {
	return &Store{
		items:  make([]core.StoredEntry, 0),
		titles: make(map[string]struct{}),
		colors: make(map[string]struct{}),
		newID:  func() string { return uuid.NewString() },
	}
}

// Insert stores the entry and returns it with a generated identifier.
func (s *Store) Insert(_ context.Context, e core.BudgetEntry) (core.StoredEntry, error) {
	if err := e.Validate(); err != nil {
		return core.StoredEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.StoredEntry{}, fmt.Errorf("%w: store closed", core.ErrStoreUnavailable)
	}
	if _, ok := s.titles[e.Title]; ok {
		return core.StoredEntry{}, fmt.Errorf("%w: title %q", core.ErrDuplicateKey, e.Title)
	}
	if _, ok := s.colors[e.ColorCode]; ok {
		return core.StoredEntry{}, fmt.Errorf("%w: colorCode %q", core.ErrDuplicateKey, e.ColorCode)
	}
	se := core.StoredEntry{ID: s.newID(), BudgetEntry: e}
	s.items = append(s.items, se)
	s.titles[e.Title] = struct{}{}
	s.colors[e.ColorCode] = struct{}{}
	return se, nil
}

// ListAll returns a copy of the entries in insertion order.
func (s *Store) ListAll(_ context.Context) ([]core.StoredEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: store closed", core.ErrStoreUnavailable)
	}
	out := make([]core.StoredEntry, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: store closed", core.ErrStoreUnavailable)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ storage.EntryStore = (*Store)(nil)
