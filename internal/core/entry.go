package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type (
	// BudgetEntry is one slice of the budget chart.
	BudgetEntry struct {
		Title     string  `json:"title" validate:"required,notblank"`
		Amount    float64 `json:"budget" validate:"required"`
		ColorCode string  `json:"colorCode" validate:"required,colorcode"`
	}

	// StoredEntry is a BudgetEntry together with the identifier the store assigned to it.
	StoredEntry struct {
		ID string `json:"id"`
		BudgetEntry
	}
)

var (
	// ErrValidation marks every error caused by malformed entry data.
	ErrValidation = errors.New("validation error")
	// ErrDuplicateKey is returned when an insert violates a uniqueness constraint.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrStoreUnavailable wraps unexpected persistence failures.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrMissingField     = fmt.Errorf("%w: missing required field", ErrValidation)
	ErrInvalidColorCode = fmt.Errorf("%w: invalid color code", ErrValidation)
)

var colorCodePattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsValidColorCode reports whether s is a six digit hex color with a leading '#'.
func IsValidColorCode(s string) bool {
	return colorCodePattern.MatchString(s)
}

// Validate checks presence of all fields and the color code format.
func (e BudgetEntry) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}
	if field, ok := firstFailure(err); ok {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	if field, ok := failedOn(err, "colorcode"); ok {
		return fmt.Errorf("%w: %s %q", ErrInvalidColorCode, field, e.ColorCode)
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// Normalize trims surrounding whitespace from the text fields.
func (e BudgetEntry) Normalize() BudgetEntry {
	e.Title = strings.TrimSpace(e.Title)
	e.ColorCode = strings.TrimSpace(e.ColorCode)
	return e
}
