package importer

import (
	"fmt"
	"regexp"
	"strings"
)

var panRegex = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

// IsValidPAN reports whether pan matches the 10-character PAN pattern
// (5 letters, 4 digits, 1 letter) after upper-casing.
func IsValidPAN(pan string) bool {
	upper := strings.ToUpper(pan)
	return len(upper) == 10 && panRegex.MatchString(upper)
}

// InvalidRow describes one rejected row. Row numbers are 1-based file
// positions, so the first data row below the header is row 2.
type InvalidRow struct {
	Row    int      `json:"row"`
	Data   Row      `json:"data"`
	Errors []string `json:"errors"`
}

type ValidationSummary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

type ValidationResult struct {
	ValidRows   []Row
	InvalidRows []InvalidRow
	Summary     ValidationSummary
}

// ValidateRows applies the per-row business rules and partitions the rows.
// Rules are evaluated independently so a row can accumulate several errors.
// The duplicate check is intra-file only: the first occurrence of a PAN is
// clean, later occurrences are flagged. Store-level duplicates are resolved
// during reconciliation, where the merge policy decides their meaning.
func ValidateRows(rows []Row) ValidationResult {
	result := ValidationResult{}
	seen := make(map[string]struct{})

	for i, row := range rows {
		rowNumber := i + 2 // +1 for 0-indexing, +1 for the header row
		var errs []string

		pan := strings.TrimSpace(row["pan"])
		name := strings.TrimSpace(row["full_name"])
		if name == "" {
			name = strings.TrimSpace(row["name"])
		}

		if pan == "" {
			errs = append(errs, "Missing PAN")
		}
		if name == "" {
			errs = append(errs, "Missing Full Name")
		}
		if pan != "" && !IsValidPAN(pan) {
			errs = append(errs, fmt.Sprintf("Invalid PAN format: %s", pan))
		}
		if pan != "" {
			upper := strings.ToUpper(pan)
			if _, dup := seen[upper]; dup {
				errs = append(errs, fmt.Sprintf("Duplicate PAN in file: %s", upper))
			} else {
				seen[upper] = struct{}{}
			}
		}

		if len(errs) > 0 {
			result.InvalidRows = append(result.InvalidRows, InvalidRow{
				Row:    rowNumber,
				Data:   row,
				Errors: errs,
			})
			continue
		}

		normalized := make(Row, len(row))
		for k, v := range row {
			normalized[k] = v
		}
		normalized["pan"] = strings.ToUpper(pan)
		normalized["full_name"] = name
		result.ValidRows = append(result.ValidRows, normalized)
	}

	result.Summary = ValidationSummary{
		Total:   len(rows),
		Valid:   len(result.ValidRows),
		Invalid: len(result.InvalidRows),
	}
	return result
}
