package importer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestFormatFromFilename(t *testing.T) {
	cases := []struct {
		name   string
		format Format
		ok     bool
	}{
		{"clients.csv", FormatCSV, true},
		{"clients.CSV", FormatCSV, true},
		{"clients.xlsx", FormatSpreadsheet, true},
		{"clients.xls", FormatSpreadsheet, true},
		{"clients.pdf", "", false},
		{"clients", "", false},
	}
	for _, tc := range cases {
		format, err := FormatFromFilename(tc.name)
		if tc.ok && (err != nil || format != tc.format) {
			t.Errorf("FormatFromFilename(%q) = %v, %v; want %v", tc.name, format, err, tc.format)
		}
		if !tc.ok && err == nil {
			t.Errorf("FormatFromFilename(%q) expected error", tc.name)
		}
	}
}

func TestParseCSVMapsHeaderToFields(t *testing.T) {
	data := []byte("pan,full_name,district_id,extra\nABCDE1234F,Alice,,ignored\nFGHIJ5678K,Bob,d-1,x\n")

	rows, err := ParseFile(data, FormatCSV)
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["pan"] != "ABCDE1234F" || rows[0]["full_name"] != "Alice" {
		t.Errorf("unexpected first row: %v", rows[0])
	}
	if rows[1]["district_id"] != "d-1" {
		t.Errorf("unexpected second row: %v", rows[1])
	}
}

func TestParseCSVPreservesFileOrder(t *testing.T) {
	data := []byte("pan\nAAAAA1111A\nBBBBB2222B\nCCCCC3333C\n")

	rows, err := ParseFile(data, FormatCSV)
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	want := []string{"AAAAA1111A", "BBBBB2222B", "CCCCC3333C"}
	for i, pan := range want {
		if rows[i]["pan"] != pan {
			t.Errorf("row %d: got %q, want %q", i, rows[i]["pan"], pan)
		}
	}
}

func TestParseCSVSkipsBlankRows(t *testing.T) {
	data := []byte("pan,full_name\nABCDE1234F,Alice\n,\n\nFGHIJ5678K,Bob\n")

	rows, err := ParseFile(data, FormatCSV)
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected blank rows skipped, got %d rows", len(rows))
	}
}

func TestParseCSVSniffsTabDelimiter(t *testing.T) {
	data := []byte("pan\tfull_name\nABCDE1234F\tAlice\n")

	rows, err := ParseFile(data, FormatCSV)
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if len(rows) != 1 || rows[0]["full_name"] != "Alice" {
		t.Fatalf("tab-separated file not decoded: %v", rows)
	}
}

func TestParseCSVLowercasesHeaders(t *testing.T) {
	data := []byte("PAN,Full_Name\nABCDE1234F,Alice\n")

	rows, err := ParseFile(data, FormatCSV)
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if rows[0]["pan"] != "ABCDE1234F" || rows[0]["full_name"] != "Alice" {
		t.Errorf("headers not normalized: %v", rows[0])
	}
}

func TestParseEmptyCSVIsParseError(t *testing.T) {
	_, err := ParseFile(nil, FormatCSV)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseSpreadsheetRoundTrip(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := [][]interface{}{
		{"pan", "full_name", "district_id"},
		{"ABCDE1234F", "Alice", ""},
		{"FGHIJ5678K", "Bob", ""},
	}
	for i, rowCells := range cells {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &rowCells); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, err := ParseFile(buf.Bytes(), FormatSpreadsheet)
	if err != nil {
		t.Fatalf("ParseFile error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["pan"] != "ABCDE1234F" || rows[1]["full_name"] != "Bob" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestParseSpreadsheetCorruptArchive(t *testing.T) {
	_, err := ParseFile([]byte("this is not a zip archive"), FormatSpreadsheet)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for corrupt archive, got %v", err)
	}
}
