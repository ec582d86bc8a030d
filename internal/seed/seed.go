// Package seed loads the initial budget dataset into an entry store.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"personalbudget/internal/core"
	applog "personalbudget/internal/log"
	"personalbudget/internal/storage"
)

// Default is the dataset inserted when no seed file is configured.
func Default() []core.BudgetEntry {
	return []core.BudgetEntry{
		{Title: "Dining", Amount: 40, ColorCode: "#FF5733"},
		{Title: "Rent", Amount: 450, ColorCode: "#33FFCC"},
		{Title: "Grocery", Amount: 120, ColorCode: "#FF3399"},
		{Title: "Transportation", Amount: 50, ColorCode: "#66FF33"},
		{Title: "Utilities", Amount: 80, ColorCode: "#9966FF"},
		{Title: "Medical", Amount: 100, ColorCode: "#FFCC33"},
		{Title: "Insurance", Amount: 95, ColorCode: "#3399FF"},
		{Title: "Personal", Amount: 40, ColorCode: "#FF3366"},
		{Title: "Education", Amount: 35, ColorCode: "#33FF99"},
		{Title: "Entertainment", Amount: 30, ColorCode: "#FF9933"},
	}
}

// file mirrors the GET /budget response so an exported listing can be fed back in.
type file struct {
	MyBudget []core.BudgetEntry `json:"myBudget"`
}

// LoadFile reads a seed file of the form {"myBudget": [{title, budget, colorCode}, ...]}.
func LoadFile(path string) ([]core.BudgetEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return f.MyBudget, nil
}

// Entries returns the contents of path, or the default dataset when path is empty.
func Entries(path string) ([]core.BudgetEntry, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Result summarizes a seeding run.
type Result struct {
	Inserted []core.StoredEntry
	Skipped  int
}

// Run inserts entries one by one. Duplicates and invalid entries are logged and
// skipped; any other store failure aborts the run.
func Run(ctx context.Context, w storage.EntryWriter, entries []core.BudgetEntry) (Result, error) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentSeed)

	var res Result
	for _, e := range entries {
		stored, err := w.Insert(ctx, e.Normalize())
		switch {
		case err == nil:
			res.Inserted = append(res.Inserted, stored)
		case errors.Is(err, core.ErrDuplicateKey), errors.Is(err, core.ErrValidation):
			logger.WarnContext(ctx, "Skipping seed entry",
				applog.NewFields().
					WithOperation(applog.OpSeed).
					WithEntry("", e.Title, e.Amount, e.ColorCode).
					WithError(err).
					ToSlice()...)
			res.Skipped++
		default:
			return res, fmt.Errorf("seed entry %q: %w", e.Title, err)
		}
	}
	logger.InfoContext(ctx, "Seeding completed",
		applog.FieldOperation, applog.OpSeed,
		"inserted", len(res.Inserted),
		"skipped", res.Skipped)
	return res, nil
}
