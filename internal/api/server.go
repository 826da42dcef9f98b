// =============================================================================
// RCDV Generator - HTTP API
// =============================================================================
//
// This package exposes the batch generator over HTTP:
//   - GET  /                 status probe
//   - GET  /download-modelo  the blank input spreadsheet
//   - POST /gerar-rcdv       spreadsheet upload in, zip of forms out
//
// =============================================================================

package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/ginjaninja78/rcdv-generator/internal/batch"
	"github.com/ginjaninja78/rcdv-generator/internal/config"
	"github.com/ginjaninja78/rcdv-generator/internal/validation"
)

// Server is the HTTP front of the generator.
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	generator *batch.Generator
	logger    *zap.Logger

	// now is the clock used for the issue-date fallback.
	now func() time.Time
}

// NewServer builds the fiber app and registers the routes.
//
// PARAMETERS:
//   - cfg: The loaded configuration.
//   - generator: Runs the batches.
//   - logger: The application logger.
//
// RETURNS:
//   - A ready-to-listen server.
func NewServer(cfg *config.Config, generator *batch.Generator, logger *zap.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		generator: generator,
		logger:    logger,
		now:       time.Now,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "rcdv-generator",
		BodyLimit:             cfg.Server.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept",
		ExposeHeaders: "Content-Disposition," + HeaderRequestID,
	}))
	s.app.Use(requestLogger(logger))

	s.app.Get("/", s.handleStatus)
	s.app.Get("/download-modelo", s.handleDownloadModel)
	s.app.Post("/gerar-rcdv", s.handleGenerate)

	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + s.cfg.Server.Port
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		return s.app.ShutdownWithTimeout(10 * time.Second)
	}
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// errorHandler turns handler errors into {"detail": ...} bodies. Input
// problems are 400s; anything else is reported as a processing failure.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	detail := "Erro ao processar: " + err.Error()

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		detail = fe.Message
	case errors.Is(err, validation.ErrInvalidInput):
		code = fiber.StatusBadRequest
		detail = strings.TrimPrefix(err.Error(), validation.ErrInvalidInput.Error()+": ")
	case errors.Is(err, context.DeadlineExceeded):
		code = fiber.StatusServiceUnavailable
		detail = "Erro ao processar: tempo limite excedido"
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", requestID(c)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	return c.Status(code).JSON(fiber.Map{"detail": detail})
}
