// Package http provides the JSON facade over the budget entry service.
//
// This file implements request decoding and shape validation for the
// add-entry endpoint.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"personalbudget/internal/core"
)

// maxBodyBytes bounds the add-entry request body.
const maxBodyBytes = 1 << 20

var (
	errInvalidBody    = errors.New("invalid request body")
	errFieldsRequired = errors.New("all fields are required")
	errInvalidColor   = errors.New("invalid color format")
)

// addEntryRequest mirrors the JSON body of POST /budget/add. Pointers tell an
// absent field apart from a zero value.
type addEntryRequest struct {
	Title     *string  `json:"title"`
	Budget    *float64 `json:"budget"`
	ColorCode *string  `json:"colorCode"`
}

// ParseAddEntryRequest decodes and checks an add-entry request. Presence is
// checked before the color format, and a zero budget counts as absent.
func ParseAddEntryRequest(w http.ResponseWriter, r *http.Request) (core.BudgetEntry, error) {
	var req addEntryRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return core.BudgetEntry{}, errInvalidBody
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return core.BudgetEntry{}, errInvalidBody
	}

	entry := core.BudgetEntry{
		Title:     sanitizeInput(deref(req.Title)),
		ColorCode: sanitizeInput(deref(req.ColorCode)),
	}
	if req.Budget != nil {
		entry.Amount = *req.Budget
	}

	if entry.Title == "" || entry.Amount == 0 || entry.ColorCode == "" {
		return entry, errFieldsRequired
	}
	if !core.IsValidColorCode(entry.ColorCode) {
		return entry, errInvalidColor
	}
	return entry, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// RequireMethod checks if the request method matches one of the expected methods.
// Returns an error response builder if it doesn't.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}
