// Package storagetest holds the behaviour every storage.EntryStore must share.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"personalbudget/internal/core"
	"personalbudget/internal/storage"
)

// Run exercises insert/list/duplicate semantics against a fresh, empty store
// returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.EntryStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty list", func(t *testing.T) {
		s := newStore(t)
		got, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll on empty store: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("insert then list", func(t *testing.T) {
		s := newStore(t)
		in := core.BudgetEntry{Title: "Dining", Amount: 40, ColorCode: "#FF5733"}
		stored, err := s.Insert(ctx, in)
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if stored.ID == "" {
			t.Fatalf("expected an identifier")
		}
		if stored.BudgetEntry != in {
			t.Fatalf("stored = %+v, want %+v", stored.BudgetEntry, in)
		}

		got, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		count := 0
		for _, e := range got {
			if e.ID == stored.ID {
				count++
				if e.BudgetEntry != in {
					t.Fatalf("listed = %+v, want %+v", e.BudgetEntry, in)
				}
			}
		}
		if count != 1 {
			t.Fatalf("entry listed %d times, want 1", count)
		}
	})

	t.Run("distinct identifiers", func(t *testing.T) {
		s := newStore(t)
		a, err := s.Insert(ctx, core.BudgetEntry{Title: "Rent", Amount: 450, ColorCode: "#33FFCC"})
		if err != nil {
			t.Fatalf("Insert a: %v", err)
		}
		b, err := s.Insert(ctx, core.BudgetEntry{Title: "Grocery", Amount: 120, ColorCode: "#FF3399"})
		if err != nil {
			t.Fatalf("Insert b: %v", err)
		}
		if a.ID == b.ID {
			t.Fatalf("identifiers collide: %q", a.ID)
		}
	})

	t.Run("amount is not unique", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Insert(ctx, core.BudgetEntry{Title: "Dining", Amount: 40, ColorCode: "#FF5733"}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if _, err := s.Insert(ctx, core.BudgetEntry{Title: "Personal", Amount: 40, ColorCode: "#FF3366"}); err != nil {
			t.Fatalf("same amount should be accepted: %v", err)
		}
	})

	duplicates := []struct {
		name   string
		second core.BudgetEntry
	}{
		{"duplicate title", core.BudgetEntry{Title: "Dining", Amount: 41, ColorCode: "#000000"}},
		{"duplicate color", core.BudgetEntry{Title: "Other", Amount: 41, ColorCode: "#FF5733"}},
	}
	for _, tc := range duplicates {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			first := core.BudgetEntry{Title: "Dining", Amount: 40, ColorCode: "#FF5733"}
			if _, err := s.Insert(ctx, first); err != nil {
				t.Fatalf("first Insert: %v", err)
			}
			_, err := s.Insert(ctx, tc.second)
			if !errors.Is(err, core.ErrDuplicateKey) {
				t.Fatalf("expected ErrDuplicateKey, got %v", err)
			}
			got, err := s.ListAll(ctx)
			if err != nil {
				t.Fatalf("ListAll: %v", err)
			}
			if len(got) != 1 || got[0].BudgetEntry != first {
				t.Fatalf("first entry should remain alone, got %+v", got)
			}
		})
	}

	t.Run("invalid entries are rejected", func(t *testing.T) {
		s := newStore(t)
		bad := []core.BudgetEntry{
			{Title: "", Amount: 1, ColorCode: "#FFFFFF"},
			{Title: "X", Amount: 0, ColorCode: "#FFFFFF"},
			{Title: "X", Amount: 1, ColorCode: "red"},
		}
		for i, e := range bad {
			if _, err := s.Insert(ctx, e); !errors.Is(err, core.ErrValidation) {
				t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
			}
		}
		got, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("nothing should be written, got %+v", got)
		}
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		if err := s.Ping(ctx); err != nil {
			t.Fatalf("Ping: %v", err)
		}
	})
}
