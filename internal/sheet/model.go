package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/rcdv-generator/internal/validation"
)

// ModelFileName is the download name of the blank input workbook.
const ModelFileName = "modelo_rcdv.xlsx"

// modelSheetName is the worksheet users fill in.
const modelSheetName = "RCDV"

// Column widths of the model workbook, in model-spreadsheet order.
var modelWidths = []float64{14, 32, 22, 20, 28, 36, 22, 20}

// WriteModel writes a blank input workbook: the canonical header row, bold
// and frozen, with the amount column formatted as currency.
func WriteModel(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", modelSheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headers := validation.Headers()
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(modelSheetName, "A1", &row); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(modelSheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	for i, width := range modelWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(modelSheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set width of column %s: %w", col, err)
		}
	}

	currency := "#,##0.00"
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &currency})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}
	amountCol, err := excelize.ColumnNumberToName(int(validation.ColAmount) + 1)
	if err != nil {
		return err
	}
	if err := f.SetColStyle(modelSheetName, amountCol, amountStyle); err != nil {
		return fmt.Errorf("failed to style amount column: %w", err)
	}

	if err := f.SetPanes(modelSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write model workbook: %w", err)
	}
	return nil
}
