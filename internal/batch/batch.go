// =============================================================================
// RCDV Generator - Batch Generator
// =============================================================================
//
// This module runs the whole pipeline for one uploaded spreadsheet: one
// document per distinct order, all bundled into one zip archive.
//
// PROCESSING STEPS (per order, in first-appearance order):
//   1. Aggregate the order's rows into an OrderSummary
//   2. Build the render map from the summary and the batch metadata
//   3. Render the document with the entity's template variant
//   4. Add "<order>.<ext>" to the archive
//
// FAILURE MODEL:
//   - No orders in the table            -> ErrNoOrders (client error)
//   - An order without rows             -> skipped, logged at debug level
//   - A rendering failure               -> the whole batch fails, no archive
//   - Nothing rendered after all orders -> ErrNoDocuments (client error)
//
// Orders are processed sequentially; the context is checked between orders.
//
// =============================================================================

package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ginjaninja78/rcdv-generator/internal/aggregator"
	"github.com/ginjaninja78/rcdv-generator/internal/archive"
	"github.com/ginjaninja78/rcdv-generator/internal/summary"
	"github.com/ginjaninja78/rcdv-generator/internal/types"
	"github.com/ginjaninja78/rcdv-generator/internal/validation"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoOrders is returned when the table holds no order at all.
	ErrNoOrders = fmt.Errorf("%w: no orders found in the spreadsheet", validation.ErrInvalidInput)

	// ErrNoDocuments is returned when no order produced a document.
	ErrNoDocuments = fmt.Errorf("%w: no documents were generated", validation.ErrInvalidInput)
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Renderer turns a render map into a document.
//
//go:generate mockgen -destination=mocks/mock_renderer.go -source=batch.go Renderer
type Renderer interface {
	Render(ctx context.Context, variant types.TemplateVariant, data types.RenderMap) ([]byte, error)
	Extension() string
}

// Logger is the logging surface the generator needs. *zap.SugaredLogger
// satisfies it.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// =============================================================================
// REQUEST AND RESULT
// =============================================================================

// Request is one batch: a table plus the metadata shared by all its orders.
type Request struct {
	// Table is the parsed spreadsheet.
	Table *types.Table

	// Meta is printed on every document.
	Meta summary.Metadata

	// Orders restricts the batch to these orders when non-empty. Orders not
	// present in the table are skipped like any order without rows.
	Orders []int64
}

// Result describes a finished batch.
type Result struct {
	// Documents lists the archive entry names, in archive order.
	Documents []string

	// Skipped lists the orders that had no rows.
	Skipped []int64

	// Stats holds counters for logging.
	Stats Stats
}

// Stats holds batch counters.
type Stats struct {
	// RowsProcessed is the number of table rows that belong to a rendered order.
	RowsProcessed int

	// TravelersListed is the total number of traveler entries rendered.
	TravelersListed int

	// ProcessingTime is the wall time of the batch.
	ProcessingTime time.Duration
}

// =============================================================================
// GENERATOR
// =============================================================================

// Generator runs batches.
type Generator struct {
	renderer Renderer
	builder  *summary.Builder
	logger   Logger
	level    int
}

// Option customizes a Generator.
type Option func(*Generator)

// WithCompressionLevel sets the archive deflate level.
func WithCompressionLevel(level int) Option {
	return func(g *Generator) { g.level = level }
}

// NewGenerator wires a generator.
func NewGenerator(renderer Renderer, builder *summary.Builder, logger Logger, opts ...Option) *Generator {
	g := &Generator{
		renderer: renderer,
		builder:  builder,
		logger:   logger,
		level:    archive.DefaultLevel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders every order of the request and writes the zip to w.
//
// PARAMETERS:
//   - ctx: Cancels the batch between orders.
//   - req: The table, metadata and optional order filter.
//   - w: Receives the archive. Nothing is written unless the batch succeeds.
//
// RETURNS:
//   - The batch result.
//   - ErrNoOrders, ErrNoDocuments, a context error or a wrapped rendering
//     error.
func (g *Generator) Generate(ctx context.Context, req Request, w io.Writer) (*Result, error) {
	start := time.Now()

	if req.Table == nil {
		return nil, ErrNoOrders
	}

	orders := distinct(req.Orders)
	if len(orders) == 0 {
		orders = req.Table.Orders()
	}
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}

	g.logger.Infof("generating %d document(s) for %s", len(orders), req.Meta.Entity.Name)

	// The archive is buffered so a failure halfway leaves w untouched.
	var buf bytes.Buffer
	zw, err := archive.NewWriter(&buf, g.level)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	ext := g.renderer.Extension()

	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch interrupted before order %d: %w", order, err)
		}

		s, err := aggregator.Aggregate(req.Table, order)
		if errors.Is(err, aggregator.ErrOrderNotFound) {
			g.logger.Debugf("order %d has no rows, skipping", order)
			result.Skipped = append(result.Skipped, order)
			continue
		}
		if err != nil {
			return nil, err
		}

		data := g.builder.Build(s, req.Meta)

		doc, err := g.renderer.Render(ctx, req.Meta.Entity.Variant, data)
		if err != nil {
			g.logger.Errorf("order %d failed to render: %v", order, err)
			return nil, fmt.Errorf("failed to render order %d: %w", order, err)
		}

		name := strconv.FormatInt(order, 10) + "." + ext
		if err := zw.Add(name, doc); err != nil {
			return nil, err
		}

		result.Documents = append(result.Documents, name)
		result.Stats.TravelersListed += len(s.Travelers)
		result.Stats.RowsProcessed += countRows(req.Table, order)
		g.logger.Debugf("order %d rendered: %d traveler(s), total %s", order, len(s.Travelers), s.GrandTotal.StringFixed(2))
	}

	if zw.Len() == 0 {
		return nil, ErrNoDocuments
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return nil, fmt.Errorf("failed to write archive: %w", err)
	}

	result.Stats.ProcessingTime = time.Since(start)
	g.logger.Infof("generated %d document(s), skipped %d, in %s",
		len(result.Documents), len(result.Skipped), result.Stats.ProcessingTime)

	return result, nil
}

// distinct drops repeated orders, keeping the first occurrence.
func distinct(orders []int64) []int64 {
	seen := make(map[int64]struct{}, len(orders))
	out := make([]int64, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

// countRows counts the table rows of one order.
func countRows(table *types.Table, order int64) int {
	n := 0
	for _, row := range table.Rows {
		if row.Order == order {
			n++
		}
	}
	return n
}
