package importer

import (
	"strings"
	"testing"
)

func TestIsValidPAN(t *testing.T) {
	cases := []struct {
		pan   string
		valid bool
	}{
		{"ABCDE1234F", true},
		{"abcde1234f", true}, // case-insensitive input
		{"ABCDE123", false},  // 9 chars
		{"ABCDE12345", false},
		{"1BCDE1234F", false},
		{"ABCDE1234FX", false}, // 11 chars
		{"", false},
	}
	for _, tc := range cases {
		if got := IsValidPAN(tc.pan); got != tc.valid {
			t.Errorf("IsValidPAN(%q) = %v, want %v", tc.pan, got, tc.valid)
		}
	}
}

func TestValidateRowsNormalizesValidRows(t *testing.T) {
	result := ValidateRows([]Row{
		{"pan": "abcde1234f", "name": "Alice Kumar"},
	})

	if len(result.ValidRows) != 1 || len(result.InvalidRows) != 0 {
		t.Fatalf("expected 1 valid row, got %d valid %d invalid", len(result.ValidRows), len(result.InvalidRows))
	}
	row := result.ValidRows[0]
	if row["pan"] != "ABCDE1234F" {
		t.Errorf("PAN not upper-cased: %q", row["pan"])
	}
	if row["full_name"] != "Alice Kumar" {
		t.Errorf("name not unified to full_name: %q", row["full_name"])
	}
}

func TestValidateRowsFlagsOnlyLaterDuplicates(t *testing.T) {
	result := ValidateRows([]Row{
		{"pan": "ABCDE1234F", "full_name": "First"},
		{"pan": "abcde1234f", "full_name": "Second"},
		{"pan": "FGHIJ5678K", "full_name": "Third"},
	})

	if result.Summary.Valid != 2 || result.Summary.Invalid != 1 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
	if len(result.InvalidRows) != 1 {
		t.Fatalf("expected exactly 1 invalid row, got %d", len(result.InvalidRows))
	}
	invalid := result.InvalidRows[0]
	if invalid.Row != 3 {
		t.Errorf("expected duplicate at file row 3, got %d", invalid.Row)
	}
	if len(invalid.Errors) != 1 || !strings.HasPrefix(invalid.Errors[0], "Duplicate PAN in file") {
		t.Errorf("unexpected errors: %v", invalid.Errors)
	}
}

func TestValidateRowsAccumulatesErrors(t *testing.T) {
	result := ValidateRows([]Row{
		{"pan": "", "full_name": ""},
	})

	if len(result.InvalidRows) != 1 {
		t.Fatalf("expected 1 invalid row, got %d", len(result.InvalidRows))
	}
	errs := result.InvalidRows[0].Errors
	if len(errs) != 2 {
		t.Fatalf("expected both missing-field errors, got %v", errs)
	}
}

func TestValidateRowsRejectsShortPAN(t *testing.T) {
	result := ValidateRows([]Row{
		{"pan": "ABCDE123", "full_name": "Short Pan"},
	})

	if result.Summary.Valid != 0 {
		t.Fatalf("9-char PAN must not validate: %+v", result.Summary)
	}
	errs := result.InvalidRows[0].Errors
	found := false
	for _, e := range errs {
		if strings.HasPrefix(e, "Invalid PAN format") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an Invalid PAN format error, got %v", errs)
	}
}

func TestValidateRowsRowNumbersAccountForHeader(t *testing.T) {
	result := ValidateRows([]Row{
		{"pan": "ABCDE1234F", "full_name": "ok"},
		{"pan": "BAD", "full_name": "broken"},
	})

	if len(result.InvalidRows) != 1 {
		t.Fatalf("expected 1 invalid row, got %d", len(result.InvalidRows))
	}
	// Second data row sits at file row 3 (header is row 1).
	if got := result.InvalidRows[0].Row; got != 3 {
		t.Errorf("expected row number 3, got %d", got)
	}
}

func TestValidateRowsDuplicateOfInvalidPANStillTracked(t *testing.T) {
	// An invalid-format PAN still claims its spot in the duplicate set, so a
	// second occurrence is reported as a duplicate too.
	result := ValidateRows([]Row{
		{"pan": "BAD", "full_name": "a"},
		{"pan": "bad", "full_name": "b"},
	})

	if result.Summary.Invalid != 2 {
		t.Fatalf("expected both rows invalid: %+v", result.Summary)
	}
	second := result.InvalidRows[1].Errors
	hasDup := false
	for _, e := range second {
		if strings.HasPrefix(e, "Duplicate PAN in file") {
			hasDup = true
		}
	}
	if !hasDup {
		t.Errorf("expected duplicate error on second row, got %v", second)
	}
}
