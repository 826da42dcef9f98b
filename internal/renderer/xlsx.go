package renderer

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/rcdv-generator/internal/summary"
	"github.com/ginjaninja78/rcdv-generator/internal/types"
)

// XlsxExtension is the file extension of rendered workbooks.
const XlsxExtension = "xlsx"

// placeholder matches {{key}}, {{ key }}, {{.key}} and {{pessoas.field}}.
var placeholder = regexp.MustCompile(`\{\{\s*\.?([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)?)\s*\}\}`)

// travelerPrefix marks placeholders of the repeated traveler row.
var travelerPrefix = summary.KeyTravelers + "."

// XlsxRenderer renders workbook templates.
type XlsxRenderer struct {
	fsys      fs.FS
	templates Templates
}

// NewXlsxRenderer returns a renderer reading templates from fsys.
func NewXlsxRenderer(fsys fs.FS, templates Templates) *XlsxRenderer {
	return &XlsxRenderer{fsys: fsys, templates: templates}
}

// Extension returns the rendered file extension.
func (r *XlsxRenderer) Extension() string {
	return XlsxExtension
}

// Render fills the first worksheet of the variant's template.
//
// RENDERING STEPS:
//   1. Find the first row holding a {{pessoas.*}} placeholder
//   2. Repeat that row once per traveler (or drop it when there are none)
//   3. Replace every placeholder with its value
//
// Unknown keys render as empty cells.
func (r *XlsxRenderer) Render(ctx context.Context, variant types.TemplateVariant, data types.RenderMap) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, name, err := load(r.fsys, r.templates, variant)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("template %s is not a workbook: %w", name, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	values := mapValues(data, func(s string) string { return s })
	people := travelers(data, summary.KeyTravelers)

	// 1-based row of the traveler block, 0 when the template has none.
	travelerRow := 0
	for i, row := range rows {
		if strings.Contains(strings.Join(row, "\x00"), travelerPrefix) {
			travelerRow = i + 1
			break
		}
	}

	if travelerRow > 0 {
		if len(people) == 0 {
			if err := f.RemoveRow(sheet, travelerRow); err != nil {
				return nil, fmt.Errorf("failed to drop traveler row: %w", err)
			}
		}
		for i := 1; i < len(people); i++ {
			if err := f.DuplicateRow(sheet, travelerRow); err != nil {
				return nil, fmt.Errorf("failed to repeat traveler row: %w", err)
			}
		}
		if rows, err = f.GetRows(sheet); err != nil {
			return nil, fmt.Errorf("failed to re-read template %s: %w", name, err)
		}
	}

	for i, row := range rows {
		rowNum := i + 1

		var person map[string]string
		if travelerRow > 0 && rowNum >= travelerRow && rowNum < travelerRow+len(people) {
			person = people[rowNum-travelerRow]
		}

		for j, value := range row {
			if !strings.Contains(value, "{{") {
				continue
			}
			filled := placeholder.ReplaceAllStringFunc(value, func(p string) string {
				key := placeholder.FindStringSubmatch(p)[1]
				if field, ok := strings.CutPrefix(key, travelerPrefix); ok {
					return person[field]
				}
				s, _ := values[key].(string)
				return s
			})

			cell, err := excelize.CoordinatesToCellName(j+1, rowNum)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellStr(sheet, cell, filled); err != nil {
				return nil, fmt.Errorf("failed to fill %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
