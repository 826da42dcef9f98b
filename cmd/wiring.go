package cmd

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ginjaninja78/rcdv-generator/internal/batch"
	"github.com/ginjaninja78/rcdv-generator/internal/config"
	"github.com/ginjaninja78/rcdv-generator/internal/money"
	"github.com/ginjaninja78/rcdv-generator/internal/renderer"
	"github.com/ginjaninja78/rcdv-generator/internal/summary"
	"github.com/ginjaninja78/rcdv-generator/internal/types"
)

// newRenderer builds the renderer selected by the configuration. Templates
// are read from the template directory at render time.
func newRenderer(cfg *config.Config) batch.Renderer {
	fsys := os.DirFS(cfg.Templates.Dir)
	templates := renderer.Templates{
		types.VariantSocial:   cfg.Templates.Social,
		types.VariantNational: cfg.Templates.National,
	}

	if cfg.Templates.Renderer == config.RendererXlsx {
		return renderer.NewXlsxRenderer(fsys, templates)
	}
	return renderer.NewDocxRenderer(fsys, templates)
}

// newGenerator wires the batch generator from the configuration.
func newGenerator(cfg *config.Config, log *zap.Logger) (*batch.Generator, error) {
	formatter, err := money.NewFormatter(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to create currency formatter: %w", err)
	}

	var opts []batch.Option
	if cfg.CompressionLevel != nil {
		opts = append(opts, batch.WithCompressionLevel(*cfg.CompressionLevel))
	}

	return batch.NewGenerator(
		newRenderer(cfg),
		summary.NewBuilder(formatter),
		log.Sugar(),
		opts...,
	), nil
}
