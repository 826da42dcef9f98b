package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/ginjaninja78/rcdv-generator/internal/validation"
)

// utf8BOM is stripped from the start of CSV files saved by spreadsheet tools.
var utf8BOM = []byte("\xef\xbb\xbf")

// readCSV reads a delimited file. The delimiter is sniffed from the first
// line: ";" (what pt-BR spreadsheet tools export), "\t" or ",". A ";" file
// is read with Brazilian amount notation.
func readCSV(data []byte) ([]record, validation.Notation, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	delimiter := sniffDelimiter(data)
	notation := validation.NotationAuto
	if delimiter == ';' {
		notation = validation.NotationBrazilian
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, notation, &validation.ValidationError{
			Severity: validation.SeverityError,
			Message:  fmt.Sprintf("failed to read CSV: %v", err),
		}
	}

	records := make([]record, len(rows))
	for i, row := range rows {
		records[i] = record{line: i + 1, text: row, raw: row}
	}
	return records, notation, nil
}

// sniffDelimiter picks the most frequent candidate in the first line.
func sniffDelimiter(data []byte) rune {
	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}

	best, bestCount := ',', 0
	for _, candidate := range []rune{';', '\t', ','} {
		if n := bytes.Count(first, []byte(string(candidate))); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}
