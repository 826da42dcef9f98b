// =============================================================================
// RCDV Generator - Shared Types
// =============================================================================
//
// This package contains the types shared by the sheet loader, the aggregator,
// the summary builder and the renderers. Keeping them here avoids import
// cycles between those packages:
//   - sheet       produces a Table
//   - aggregator  turns a Table into an OrderSummary
//   - summary     turns an OrderSummary into a RenderMap
//   - renderer    consumes a RenderMap
//
// =============================================================================

package types

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUT TYPES
// =============================================================================

// ExpenseRow is one line of the expense spreadsheet.
type ExpenseRow struct {
	// Order is the order identifier ("Nº DA ORDEM"). Rows sharing it are
	// rendered into the same document.
	Order int64

	// Traveler is the traveler's name ("NOME DO VIAJANTE").
	Traveler string

	// Role is the traveler's position ("CARGO").
	Role string

	// Category is the expense category label ("RUBRICA").
	Category string

	// Amount is the value used in the project. Invalid when the cell was
	// empty or could not be parsed; such rows are excluded from every sum.
	Amount decimal.NullDecimal

	// Event, Period and Location describe the trip. Only the first row of
	// an order is used for them.
	Event    string
	Period   string
	Location string

	// Line is the 1-indexed source line, for error reporting.
	Line int
}

// Table is the parsed spreadsheet, rows in source order.
type Table struct {
	Rows []ExpenseRow
}

// Orders returns the distinct order identifiers in first-appearance order.
func (t *Table) Orders() []int64 {
	seen := make(map[int64]struct{}, len(t.Rows))
	orders := make([]int64, 0)
	for _, row := range t.Rows {
		if _, ok := seen[row.Order]; ok {
			continue
		}
		seen[row.Order] = struct{}{}
		orders = append(orders, row.Order)
	}
	return orders
}

// =============================================================================
// CATEGORIES
// =============================================================================

// Category is the bucket an expense row falls into.
type Category int

const (
	// CategoryOther is the daily allowance bucket ("ajuda de custo"). Every
	// label that is neither lodging nor transport lands here.
	CategoryOther Category = iota

	// CategoryLodging covers labels containing "HOSPEDAGE".
	CategoryLodging

	// CategoryTransport covers labels containing "PASSAGE".
	CategoryTransport
)

// String returns a lowercase name, used in logs.
func (c Category) String() string {
	switch c {
	case CategoryLodging:
		return "lodging"
	case CategoryTransport:
		return "transport"
	default:
		return "other"
	}
}

// =============================================================================
// AGGREGATED TYPES
// =============================================================================

// Bucket accumulates the valid amounts of one category.
type Bucket struct {
	Sum   decimal.Decimal
	Count int
}

// Add records one amount in the bucket.
func (b *Bucket) Add(amount decimal.Decimal) {
	b.Sum = b.Sum.Add(amount)
	b.Count++
}

// Empty reports whether no valid row fell into the bucket.
func (b Bucket) Empty() bool {
	return b.Count == 0
}

// TravelerTotal is one traveler's share of an order.
type TravelerTotal struct {
	Name  string
	Role  string
	Total decimal.Decimal
}

// OrderSummary is the aggregated view of a single order.
//
// For every summary the following holds exactly:
//
//	GrandTotal == Lodging.Sum + Transport.Sum + Other.Sum == Σ Travelers[i].Total
type OrderSummary struct {
	// Order is the order identifier.
	Order int64

	// Lodging, Transport and Other are the three category buckets.
	Lodging   Bucket
	Transport Bucket
	Other     Bucket

	// Travelers lists each distinct traveler in first-appearance order.
	Travelers []TravelerTotal

	// GrandTotal is the sum of the traveler totals.
	GrandTotal decimal.Decimal

	// Event, Period and Location come from the order's first row.
	Event    string
	Period   string
	Location string
}

// =============================================================================
// RENDERING TYPES
// =============================================================================

// TemplateVariant selects which document template an order is rendered with.
type TemplateVariant string

const (
	// VariantSocial is the SESI template.
	VariantSocial TemplateVariant = "social"

	// VariantNational is the SENAI template.
	VariantNational TemplateVariant = "national"
)

// RenderMap is the flat key-value mapping handed to a renderer. Values are
// strings, except "pessoas" which holds a []map[string]string.
type RenderMap map[string]any
