package api

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ginjaninja78/rcdv-generator/internal/batch"
	"github.com/ginjaninja78/rcdv-generator/internal/sheet"
	"github.com/ginjaninja78/rcdv-generator/internal/summary"
	"github.com/ginjaninja78/rcdv-generator/internal/validation"
	"github.com/ginjaninja78/rcdv-generator/pkg/utils"
)

// Form fields of POST /gerar-rcdv.
const (
	FieldSpreadsheet = "planilha"
	FieldProject     = "projeto"
	FieldManager     = "gestor"
	FieldAccountant  = "contador"
	FieldEntity      = "entidade"
	FieldIssueDate   = "data_emissao"

	// FieldOrders optionally restricts the batch, e.g. "100,101".
	FieldOrders = "ordens"
)

// ArchiveFileName is the download name of a generated batch.
const ArchiveFileName = "rcdv_documentos.zip"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// =============================================================================
// STATUS
// =============================================================================

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Gerador RCDV API",
		"status":  "online",
	})
}

// =============================================================================
// MODEL SPREADSHEET
// =============================================================================

// handleDownloadModel serves the configured model workbook, or a generated
// one when none is configured.
func (s *Server) handleDownloadModel(c *fiber.Ctx) error {
	if path := s.cfg.ModelSpreadsheet; path != "" && utils.FileExists(path) {
		return c.Download(path, sheet.ModelFileName)
	}

	var buf bytes.Buffer
	if err := sheet.WriteModel(&buf); err != nil {
		return err
	}

	c.Attachment(sheet.ModelFileName)
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(buf.Bytes())
}

// =============================================================================
// GENERATION
// =============================================================================

// handleGenerate runs one batch over the uploaded spreadsheet and returns the
// zip of forms.
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	log := s.logger.With(zap.String("request_id", requestID(c)))

	if err := requireFields(c); err != nil {
		return err
	}

	fh, err := c.FormFile(FieldSpreadsheet)
	if err != nil {
		return fmt.Errorf("%w: missing form field(s): %s", validation.ErrInvalidInput, FieldSpreadsheet)
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	sh, err := sheet.Parse(f, fh.Filename)
	if err != nil {
		return err
	}
	for _, w := range sh.Warnings {
		log.Warn("spreadsheet warning", zap.String("file", fh.Filename), zap.String("warning", w.Error()))
	}

	issueDate, ok := summary.ParseIssueDate(c.FormValue(FieldIssueDate), s.now())
	if !ok {
		if s.cfg.StrictIssueDate {
			return fmt.Errorf("%w: invalid issue date %q", validation.ErrInvalidInput, c.FormValue(FieldIssueDate))
		}
		log.Warn("unparseable issue date, using today", zap.String("value", c.FormValue(FieldIssueDate)))
	}

	orders, err := parseOrders(c.FormValue(FieldOrders))
	if err != nil {
		return err
	}

	req := batch.Request{
		Table: sh.Table,
		Meta: summary.Metadata{
			Entity:     summary.ResolveEntity(c.FormValue(FieldEntity)),
			Project:    c.FormValue(FieldProject),
			Manager:    c.FormValue(FieldManager),
			Accountant: c.FormValue(FieldAccountant),
			IssueDate:  issueDate,
		},
		Orders: orders,
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.cfg.Server.RequestTimeout)
	defer cancel()

	var buf bytes.Buffer
	result, err := s.generator.Generate(ctx, req, &buf)
	if err != nil {
		return err
	}

	log.Info("batch generated",
		zap.String("file", fh.Filename),
		zap.Int("documents", len(result.Documents)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("rows", result.Stats.RowsProcessed),
		zap.Duration("elapsed", result.Stats.ProcessingTime),
	)

	c.Attachment(ArchiveFileName)
	c.Set(fiber.HeaderContentType, "application/zip")
	return c.Send(buf.Bytes())
}

// requireFields reports every missing required field at once.
func requireFields(c *fiber.Ctx) error {
	var missing []string
	if _, err := c.FormFile(FieldSpreadsheet); err != nil {
		missing = append(missing, FieldSpreadsheet)
	}
	for _, field := range []string{FieldProject, FieldManager, FieldAccountant, FieldEntity, FieldIssueDate} {
		if strings.TrimSpace(c.FormValue(field)) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing form field(s): %s", validation.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// parseOrders reads a comma or space separated order list.
func parseOrders(value string) ([]int64, error) {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})

	orders := make([]int64, 0, len(fields))
	for _, field := range fields {
		n, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid order %q in %s", validation.ErrInvalidInput, field, FieldOrders)
		}
		orders = append(orders, n)
	}
	return orders, nil
}
