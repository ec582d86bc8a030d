package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestIsValidColorCode(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"#FF5733", true},
		{"#ff5733", true},
		{"#a1B2c3", true},
		{"red", false},
		{"#12345", false},
		{"123456", false},
		{"#1234567", false},
		{"#GG5733", false},
		{"", false},
		{" #FF5733", false},
	}
	for _, tc := range cases {
		if got := IsValidColorCode(tc.in); got != tc.ok {
			t.Errorf("IsValidColorCode(%q) = %v, want %v", tc.in, got, tc.ok)
		}
	}
}

func TestBudgetEntryValidate(t *testing.T) {
	good := BudgetEntry{Title: "Dining", Amount: 40, ColorCode: "#FF5733"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	negative := BudgetEntry{Title: "Refund", Amount: -12.5, ColorCode: "#00aa00"}
	if err := negative.Validate(); err != nil {
		t.Fatalf("negative amounts carry no constraint, got %v", err)
	}

	missing := []BudgetEntry{
		{Title: "", Amount: 40, ColorCode: "#FF5733"},
		{Title: "   ", Amount: 40, ColorCode: "#FF5733"},
		{Title: "Dining", Amount: 0, ColorCode: "#FF5733"},
		{Title: "Dining", Amount: 40, ColorCode: ""},
		// presence is reported before format
		{Title: "", Amount: 40, ColorCode: "red"},
	}
	for i, e := range missing {
		err := e.Validate()
		if !errors.Is(err, ErrMissingField) {
			t.Fatalf("case %d expected ErrMissingField, got %v", i, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected ErrValidation in chain", i)
		}
	}

	for _, color := range []string{"red", "#12345", "123456", "#1234567"} {
		err := BudgetEntry{Title: "Dining", Amount: 40, ColorCode: color}.Validate()
		if !errors.Is(err, ErrInvalidColorCode) {
			t.Fatalf("color %q: expected ErrInvalidColorCode, got %v", color, err)
		}
	}
}

func TestStoredEntryJSONShape(t *testing.T) {
	se := StoredEntry{ID: "1", BudgetEntry: BudgetEntry{Title: "Rent", Amount: 450, ColorCode: "#33FFCC"}}
	b, err := json.Marshal(se)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"1","title":"Rent","budget":450,"colorCode":"#33FFCC"}`
	if string(b) != want {
		t.Fatalf("json = %s, want %s", b, want)
	}
}

func TestNormalize(t *testing.T) {
	e := BudgetEntry{Title: "  Rent ", Amount: 1, ColorCode: " #33FFCC\n"}.Normalize()
	if e.Title != "Rent" || e.ColorCode != "#33FFCC" {
		t.Fatalf("unexpected normalize result: %+v", e)
	}
}
