package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/rcdv-generator/internal/types"
)

// =============================================================================
// CELL VALUES
// =============================================================================

// ParseOrder validates an order-number cell. Integral decimals such as
// "100.0" (how spreadsheets often store whole numbers) are accepted.
func ParseOrder(value string, row int) (int64, error) {
	raw := strings.TrimSpace(value)
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, &ValidationError{
			Severity: SeverityError,
			Column:   ColOrder.Header(),
			Value:    value,
			Message:  "order number is not an integer",
			Row:      row,
		}
	}
	if !d.BigInt().IsInt64() {
		return 0, &ValidationError{
			Severity: SeverityError,
			Column:   ColOrder.Header(),
			Value:    value,
			Message:  "order number is out of range",
			Row:      row,
		}
	}
	return d.IntPart(), nil
}

// Notation selects how an amount with a lone "." is read.
type Notation int

const (
	// NotationAuto reads "1.234" as a decimal, as spreadsheets store numbers.
	NotationAuto Notation = iota

	// NotationBrazilian reads a lone "." followed by exactly three digits as
	// a thousands separator, so "1.234" is 1234. Semicolon-delimited CSV
	// exports use this notation.
	NotationBrazilian
)

// ParseAmount parses an amount cell. It accepts plain decimals ("75.25"),
// Brazilian notation ("1.234,56"), a leading "R$" and non-breaking spaces.
//
// RETURNS:
//   - The amount, invalid when the cell is empty or unparseable.
//   - A warning when the cell is non-empty but unparseable; nil otherwise.
func ParseAmount(value string, row int) (decimal.NullDecimal, *ValidationError) {
	return ParseAmountIn(value, row, NotationAuto)
}

// ParseAmountIn is ParseAmount with an explicit notation for ambiguous
// values such as "1.234".
func ParseAmountIn(value string, row int, notation Notation) (decimal.NullDecimal, *ValidationError) {
	cleaned := cleanAmount(value)
	if cleaned == "" {
		return decimal.NullDecimal{}, nil
	}

	if d, err := decimal.NewFromString(normalizeSeparators(cleaned, notation)); err == nil {
		return decimal.NewNullDecimal(d), nil
	}

	return decimal.NullDecimal{}, &ValidationError{
		Severity: SeverityWarning,
		Column:   ColAmount.Header(),
		Value:    value,
		Message:  "amount is not a number and was ignored",
		Row:      row,
	}
}

// cleanAmount strips currency marks and every kind of space.
func cleanAmount(value string) string {
	s := strings.TrimSpace(value)
	s = strings.TrimPrefix(strings.ToUpper(s), "R$")
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, s)
}

// normalizeSeparators rewrites s so "." is the only decimal separator and no
// grouping marks remain.
//
//	"1.234,56" -> "1234.56"    "1,234.56" -> "1234.56"
//	"75,25"    -> "75.25"      "1.234.567" -> "1234567"
//	"75.25"    -> "75.25"      "1,234,567" -> "1234567"
//
// With NotationBrazilian a lone "." followed by three digits is grouping:
// "1.234" -> "1234", while "75.25" is still a decimal.
func normalizeSeparators(s string, notation Notation) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	case notation == NotationBrazilian && lastDot >= 0 && len(s)-lastDot-1 == 3:
		return strings.Replace(s, ".", "", 1)
	}
	return s
}

// =============================================================================
// UNIFORMITY CHECKS
// =============================================================================

// CheckUniformity reports, as warnings, the fields the form assumes constant
// but that vary in the table: event, period and location per order, and the
// role of a traveler within an order. The first row always wins.
func CheckUniformity(table *types.Table) []*ValidationError {
	type travelerKey struct {
		order int64
		name  string
	}

	firstOfOrder := make(map[int64]types.ExpenseRow)
	firstRole := make(map[travelerKey]string)
	var warnings []*ValidationError

	warn := func(row types.ExpenseRow, col Column, value, first string) {
		warnings = append(warnings, &ValidationError{
			Severity: SeverityWarning,
			Column:   col.Header(),
			Value:    value,
			Message:  fmt.Sprintf("order %d differs from its first row (%q); the first value is used", row.Order, first),
			Row:      row.Line,
		})
	}

	for _, row := range table.Rows {
		first, seen := firstOfOrder[row.Order]
		if !seen {
			firstOfOrder[row.Order] = row
		} else {
			if row.Event != first.Event {
				warn(row, ColEvent, row.Event, first.Event)
			}
			if row.Period != first.Period {
				warn(row, ColPeriod, row.Period, first.Period)
			}
			if row.Location != first.Location {
				warn(row, ColLocation, row.Location, first.Location)
			}
		}

		key := travelerKey{order: row.Order, name: row.Traveler}
		if role, ok := firstRole[key]; !ok {
			firstRole[key] = row.Role
		} else if role != row.Role {
			warn(row, ColRole, row.Role, role)
		}
	}

	return warnings
}
