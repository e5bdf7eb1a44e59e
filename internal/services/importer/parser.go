package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format declares how an uploaded file is decoded.
type Format string

const (
	FormatCSV         Format = "csv"
	FormatSpreadsheet Format = "spreadsheet"
)

// Row is one decoded data row, keyed by lower-cased header names.
type Row map[string]string

// ParseError reports a file that could not be decoded at all. Business-rule
// violations are not parse errors; they come back from ValidateRows.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse error: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FormatFromFilename maps a file extension to its decode format.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xls":
		return FormatSpreadsheet, nil
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}
}

// ParseFile decodes the file into rows in file order. The header row defines
// field names; cells beyond the header are dropped and blank rows skipped.
// No semantic validation happens here.
func ParseFile(data []byte, format Format) ([]Row, error) {
	switch format {
	case FormatCSV:
		return parseCSV(data)
	case FormatSpreadsheet:
		return parseSpreadsheet(data)
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("unknown format %q", format)}
	}
}

func parseCSV(data []byte) ([]Row, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	// Sniff the delimiter from the first KB: comma by default, tab for TSV
	// exports that arrive with a .csv extension.
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if !bytes.ContainsRune(sample, ',') && bytes.ContainsRune(sample, '\t') {
		reader.Comma = '\t'
	}

	headerRow, err := reader.Read()
	if err != nil {
		return nil, &ParseError{Reason: "cannot read CSV header", Err: err}
	}
	header := normalizeHeader(headerRow)

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Reason: "malformed CSV row", Err: err}
		}
		if row, ok := recordToRow(header, record); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func parseSpreadsheet(data []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Reason: "cannot open spreadsheet", Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &ParseError{Reason: "spreadsheet has no sheets"}
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Reason: "cannot read sheet", Err: err}
	}
	if len(raw) == 0 {
		return nil, nil
	}

	header := normalizeHeader(raw[0])
	var rows []Row
	for _, record := range raw[1:] {
		if row, ok := recordToRow(header, record); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func normalizeHeader(cells []string) []string {
	header := make([]string, len(cells))
	for i, cell := range cells {
		header[i] = strings.ToLower(strings.TrimSpace(cell))
	}
	return header
}

// recordToRow maps cells onto header names. Returns false for blank rows.
func recordToRow(header []string, record []string) (Row, bool) {
	if len(record) == 0 || strings.Join(record, "") == "" {
		return nil, false
	}
	row := make(Row, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if i < len(record) {
			row[name] = strings.TrimSpace(record[i])
		}
	}
	return row, true
}
