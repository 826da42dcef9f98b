package sheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/rcdv-generator/internal/validation"
)

// readXLSX reads the first worksheet of a workbook. Every row is read twice:
// once with number formats applied (text columns keep what the user sees)
// and once raw (order numbers and amounts are read without formatting, so
// "R$ 1.234,56" style formats do not get in the way).
func readXLSX(data []byte) ([]record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &validation.ValidationError{
			Severity: validation.SeverityError,
			Message:  fmt.Sprintf("failed to open workbook: %v", err),
		}
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, &validation.ValidationError{
			Severity: validation.SeverityError,
			Message:  "workbook has no worksheets",
		}
	}

	text, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", sheetName, err)
	}

	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read raw rows of %s: %w", sheetName, err)
	}

	records := make([]record, len(text))
	for i := range text {
		rawRow := text[i]
		if i < len(raw) {
			rawRow = raw[i]
		}
		records[i] = record{line: i + 1, text: text[i], raw: rawRow}
	}
	return records, nil
}
