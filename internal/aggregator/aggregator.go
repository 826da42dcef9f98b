// =============================================================================
// RCDV Generator - Order Aggregator
// =============================================================================
//
// This module turns the flat expense table into the per-order summary that
// feeds a single RCDV document.
//
// AGGREGATION STEPS:
//   1. Filter the table to the rows of the requested order
//   2. Classify every row into lodging, transport or other-allowance
//   3. Sum the valid amounts per category, counting the rows that contributed
//   4. Sum the valid amounts per traveler, in first-appearance order
//   5. Take event, period and location from the order's first row
//
// Rows whose amount is missing or unparseable contribute to neither a sum
// nor a count. Arithmetic is done in decimal so the three category sums
// and the traveler totals always agree to the cent.
//
// =============================================================================

package aggregator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/rcdv-generator/internal/types"
)

// ErrOrderNotFound is returned when no row of the table carries the
// requested order identifier. Callers skip the order.
var ErrOrderNotFound = errors.New("order not found")

// Category label fragments. Matching is a case-insensitive substring test,
// so "Hospedagem", "HOSPEDAGENS" and "Passagem aérea" all classify.
const (
	lodgingMarker   = "HOSPEDAGE"
	transportMarker = "PASSAGE"
)

// Classify maps a category label to its bucket. Lodging wins over transport
// when a label contains both markers. Empty labels are other-allowance.
func Classify(label string) types.Category {
	upper := strings.ToUpper(label)
	switch {
	case strings.Contains(upper, lodgingMarker):
		return types.CategoryLodging
	case strings.Contains(upper, transportMarker):
		return types.CategoryTransport
	default:
		return types.CategoryOther
	}
}

// Aggregate builds the summary of one order.
//
// PARAMETERS:
//   - table: The full parsed spreadsheet.
//   - order: The order identifier to aggregate.
//
// RETURNS:
//   - The order summary.
//   - ErrOrderNotFound (wrapped) if no row matches.
func Aggregate(table *types.Table, order int64) (*types.OrderSummary, error) {
	rows := filter(table, order)
	if len(rows) == 0 {
		return nil, fmt.Errorf("order %d: %w", order, ErrOrderNotFound)
	}

	first := rows[0]
	summary := &types.OrderSummary{
		Order:      order,
		GrandTotal: decimal.Zero,
		Event:      first.Event,
		Period:     first.Period,
		Location:   first.Location,
	}

	// Travelers keyed by name, index into summary.Travelers to keep the
	// first-appearance order.
	index := make(map[string]int)

	for _, row := range rows {
		pos, seen := index[row.Traveler]
		if !seen {
			pos = len(summary.Travelers)
			index[row.Traveler] = pos
			summary.Travelers = append(summary.Travelers, types.TravelerTotal{
				Name:  row.Traveler,
				Role:  row.Role,
				Total: decimal.Zero,
			})
		}

		if !row.Amount.Valid {
			continue
		}
		amount := row.Amount.Decimal

		switch Classify(row.Category) {
		case types.CategoryLodging:
			summary.Lodging.Add(amount)
		case types.CategoryTransport:
			summary.Transport.Add(amount)
		default:
			summary.Other.Add(amount)
		}

		summary.Travelers[pos].Total = summary.Travelers[pos].Total.Add(amount)
	}

	for _, traveler := range summary.Travelers {
		summary.GrandTotal = summary.GrandTotal.Add(traveler.Total)
	}

	return summary, nil
}

// filter returns the rows of the given order, preserving table order.
func filter(table *types.Table, order int64) []types.ExpenseRow {
	if table == nil {
		return nil
	}
	var rows []types.ExpenseRow
	for _, row := range table.Rows {
		if row.Order == order {
			rows = append(rows, row)
		}
	}
	return rows
}
