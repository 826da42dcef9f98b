// =============================================================================
// RCDV Generator - Expense Sheet Loader
// =============================================================================
//
// This module reads the uploaded expense spreadsheet and turns it into a
// typed table. Two formats are supported:
//   - XLSX: the first worksheet of the workbook (the model spreadsheet)
//   - CSV:  ";" or "," separated, UTF-8 with or without BOM
//
// LOADING PROCESS:
//   1. Detect the format from the file signature and extension
//   2. Read the header row and resolve the required columns
//   3. Convert each non-empty row into an ExpenseRow
//   4. Collect non-fatal problems as warnings
//
// ROW RULES:
//   - Completely empty rows are skipped silently
//   - Rows with a blank order number are skipped with a warning
//   - A non-integer order number fails the whole sheet
//   - An unparseable amount is kept as "no amount" with a warning
//
// =============================================================================

package sheet

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/rcdv-generator/internal/types"
	"github.com/ginjaninja78/rcdv-generator/internal/validation"
)

// =============================================================================
// FORMATS
// =============================================================================

// Format is the container format of an uploaded sheet.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// zipMagic is the local file header signature every XLSX starts with.
var zipMagic = []byte("PK\x03\x04")

// DetectFormat picks the format from the content, falling back to the file
// extension. Returns an error for anything else.
func DetectFormat(filename string, head []byte) (Format, error) {
	if bytes.HasPrefix(head, zipMagic) {
		return FormatXLSX, nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return "", &validation.ValidationError{
			Severity: validation.SeverityError,
			Value:    filename,
			Message:  "file is not a valid XLSX workbook",
		}
	}

	return "", &validation.ValidationError{
		Severity: validation.SeverityError,
		Value:    filename,
		Message:  "unsupported file type, expected .xlsx or .csv",
	}
}

// =============================================================================
// SHEET
// =============================================================================

// Sheet is a loaded expense spreadsheet.
type Sheet struct {
	// Table holds the parsed rows.
	Table *types.Table

	// Warnings lists non-fatal problems: row-level ones in row order, then
	// the uniformity checks.
	Warnings []*validation.ValidationError

	// Format is the detected container format.
	Format Format

	// Source is the original file name.
	Source string
}

// Parse reads a whole sheet from r.
//
// PARAMETERS:
//   - r: The file contents.
//   - filename: The original file name, used for format detection and errors.
//
// RETURNS:
//   - The loaded sheet.
//   - An error wrapping validation.ErrInvalidInput when the file is not a
//     readable sheet or does not match the schema.
func Parse(r io.Reader, filename string) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	format, err := DetectFormat(filename, data)
	if err != nil {
		return nil, err
	}

	var records []record
	notation := validation.NotationAuto
	switch format {
	case FormatXLSX:
		records, err = readXLSX(data)
	case FormatCSV:
		records, notation, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}

	sheet, err := build(records, notation)
	if err != nil {
		return nil, err
	}
	sheet.Format = format
	sheet.Source = filename
	return sheet, nil
}

// =============================================================================
// ROW CONVERSION
// =============================================================================

// record is one source row. text holds display values; raw holds unformatted
// values where the format distinguishes them (XLSX numbers), else text.
type record struct {
	line int
	text []string
	raw  []string
}

// build converts the header record and the data records into a Sheet.
// notation applies to amount cells.
func build(records []record, notation validation.Notation) (*Sheet, error) {
	headerAt := -1
	for i, rec := range records {
		if !isRowEmpty(rec.text) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, &validation.ValidationError{
			Severity: validation.SeverityError,
			Message:  "sheet is empty",
		}
	}

	index, err := validation.ResolveColumns(records[headerAt].text)
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{Table: &types.Table{}}

	for _, rec := range records[headerAt+1:] {
		if isRowEmpty(rec.text) {
			continue
		}

		getText := func(col validation.Column) string {
			return cell(rec.text, index[col])
		}
		getRaw := func(col validation.Column) string {
			return cell(rec.raw, index[col])
		}

		orderCell := getRaw(validation.ColOrder)
		if orderCell == "" {
			sheet.Warnings = append(sheet.Warnings, &validation.ValidationError{
				Severity: validation.SeverityWarning,
				Column:   validation.ColOrder.Header(),
				Message:  "row has no order number and was skipped",
				Row:      rec.line,
			})
			continue
		}

		order, err := validation.ParseOrder(orderCell, rec.line)
		if err != nil {
			return nil, err
		}

		amount, warn := validation.ParseAmountIn(getRaw(validation.ColAmount), rec.line, notation)
		if warn != nil {
			sheet.Warnings = append(sheet.Warnings, warn)
		}

		sheet.Table.Rows = append(sheet.Table.Rows, types.ExpenseRow{
			Order:    order,
			Traveler: getText(validation.ColTraveler),
			Role:     getText(validation.ColRole),
			Category: getText(validation.ColCategory),
			Amount:   amount,
			Event:    getText(validation.ColEvent),
			Period:   getText(validation.ColPeriod),
			Location: getText(validation.ColLocation),
			Line:     rec.line,
		})
	}

	sheet.Warnings = append(sheet.Warnings, validation.CheckUniformity(sheet.Table)...)
	return sheet, nil
}

// cell returns the trimmed value at i, or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
