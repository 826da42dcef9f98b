// =============================================================================
// RCDV Generator - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Values come from three
// layers, later layers winning:
//   1. Built-in defaults
//   2. The YAML file (config.yaml by default; optional)
//   3. Environment variables (a .env file is loaded first when present)
//
// ENVIRONMENT VARIABLES:
//   RCDV_PORT, RCDV_TEMPLATES_DIR, RCDV_RENDERER, RCDV_LOCALE,
//   RCDV_OUTPUT_DIR, RCDV_MODEL_SPREADSHEET, RCDV_STRICT_ISSUE_DATE,
//   LOG_LEVEL
//
// All problems found by Validate are reported together.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/rcdv-generator/internal/money"
)

// Renderer names accepted in templates.renderer.
const (
	RendererDocx = "docx"
	RendererXlsx = "xlsx"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server"`

	// Templates configures document rendering.
	Templates TemplatesConfig `yaml:"templates"`

	// ModelSpreadsheet is a workbook served by GET /download-modelo. When
	// empty or missing, a blank workbook is generated instead.
	ModelSpreadsheet string `yaml:"model_spreadsheet"`

	// Locale drives currency formatting.
	// Default: "pt_BR"
	Locale string `yaml:"locale"`

	// StrictIssueDate rejects unparseable issue dates instead of falling
	// back to today.
	// Default: false
	StrictIssueDate bool `yaml:"strict_issue_date"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// OutputDir is where the CLI writes archives when no output path is given.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ArchiveNameFormat names archives written by the CLI.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {entity}    - The entity code
	// Default: "rcdv_{timestamp}.zip"
	ArchiveNameFormat string `yaml:"archive_name_format"`

	// CompressionLevel is the archive deflate level, 0 (store) to 9.
	// Default: 1
	CompressionLevel *int `yaml:"compression_level"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Port is the TCP port to listen on.
	// Default: "8000"
	Port string `yaml:"port"`

	// BodyLimitMB caps the upload size.
	// Default: 32
	BodyLimitMB int `yaml:"body_limit_mb"`

	// AllowedOrigins is the CORS allow-list, comma separated.
	// Default: "*"
	AllowedOrigins string `yaml:"allowed_origins"`

	// RequestTimeout bounds the generation of one batch.
	// Default: 2m
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// TemplatesConfig configures document rendering.
type TemplatesConfig struct {
	// Dir holds the template files.
	// Default: "./templates"
	Dir string `yaml:"dir"`

	// Renderer selects the template format: "docx" or "xlsx".
	// Default: "docx"
	Renderer string `yaml:"renderer"`

	// Social is the template file of the SESI variant, relative to Dir.
	// Default: "template_sesi.<renderer>"
	Social string `yaml:"social"`

	// National is the template file of the SENAI variant, relative to Dir.
	// Default: "template_senai.<renderer>"
	National string `yaml:"national"`
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// Load builds the configuration.
//
// PARAMETERS:
//   - configPath: The YAML file. A missing file is not an error.
//
// RETURNS:
//   - The validated configuration.
//   - An error if the file cannot be parsed or the result is invalid.
func Load(configPath string) (*Config, error) {
	// Load .env for local development; absence is fine.
	_ = godotenv.Load()

	var cfg Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults and environment only.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("RCDV_PORT", cfg.Server.Port)
	cfg.Templates.Dir = getEnv("RCDV_TEMPLATES_DIR", cfg.Templates.Dir)
	cfg.Templates.Renderer = getEnv("RCDV_RENDERER", cfg.Templates.Renderer)
	cfg.Locale = getEnv("RCDV_LOCALE", cfg.Locale)
	cfg.OutputDir = getEnv("RCDV_OUTPUT_DIR", cfg.OutputDir)
	cfg.ModelSpreadsheet = getEnv("RCDV_MODEL_SPREADSHEET", cfg.ModelSpreadsheet)
	cfg.StrictIssueDate = getEnvBool("RCDV_STRICT_ISSUE_DATE", cfg.StrictIssueDate)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

// applyDefaults sets default values for any unset option.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8000"
	}
	if cfg.Server.BodyLimitMB == 0 {
		cfg.Server.BodyLimitMB = 32
	}
	if cfg.Server.AllowedOrigins == "" {
		cfg.Server.AllowedOrigins = "*"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 2 * time.Minute
	}
	if cfg.Templates.Dir == "" {
		cfg.Templates.Dir = "./templates"
	}
	if cfg.Templates.Renderer == "" {
		cfg.Templates.Renderer = RendererDocx
	}
	cfg.Templates.Renderer = strings.ToLower(cfg.Templates.Renderer)
	if cfg.Templates.Social == "" {
		cfg.Templates.Social = "template_sesi." + cfg.Templates.Renderer
	}
	if cfg.Templates.National == "" {
		cfg.Templates.National = "template_senai." + cfg.Templates.Renderer
	}
	if cfg.Locale == "" {
		cfg.Locale = money.DefaultLocale
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.ArchiveNameFormat == "" {
		cfg.ArchiveNameFormat = "rcdv_{timestamp}.zip"
	}
	if cfg.CompressionLevel == nil {
		level := 1
		cfg.CompressionLevel = &level
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Server.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Server.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.Server.BodyLimitMB < 1 {
		errs = append(errs, fmt.Sprintf("invalid body limit %d MB: must be at least 1", c.Server.BodyLimitMB))
	}

	if c.Server.RequestTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.Server.RequestTimeout))
	}

	switch c.Templates.Renderer {
	case RendererDocx, RendererXlsx:
	default:
		errs = append(errs, fmt.Sprintf("invalid renderer '%s': must be one of [%s %s]", c.Templates.Renderer, RendererDocx, RendererXlsx))
	}

	if _, err := money.NewFormatter(c.Locale); err != nil {
		errs = append(errs, err.Error())
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if c.CompressionLevel != nil && (*c.CompressionLevel < 0 || *c.CompressionLevel > 9) {
		errs = append(errs, fmt.Sprintf("invalid compression level %d: must be between 0 and 9", *c.CompressionLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
