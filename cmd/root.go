// =============================================================================
// RCDV Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (rcdv)
//   ├── serveCmd (rcdv serve)
//   ├── generateCmd (rcdv generate)
//   ├── modelCmd (rcdv model)
//   └── versionCmd (rcdv version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the configuration (--config, .env, environment)
//   2. Sets up logging (--verbose forces debug)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/rcdv-generator/internal/config"
	"github.com/ginjaninja78/rcdv-generator/pkg/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig is the configuration loaded by the root command.
var appConfig *config.Config

// appLogger is the logger built from appConfig.
var appLogger *zap.Logger

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "rcdv",
	Short: "RCDV Generator - Travel expense forms from a spreadsheet",
	Long: `RCDV Generator reads a travel-expense spreadsheet, totals the expenses of
each order by category and traveler, and renders one RCDV form per order.
The forms are bundled into a single zip archive.

Key Features:
  - XLSX and CSV input, validated against the model spreadsheet
  - DOCX or XLSX form templates, one per entity (SESI / SENAI)
  - HTTP API compatible with the web front-end
  - Locale-aware currency formatting

Example Usage:
  rcdv serve                                    # Start the HTTP API
  rcdv generate -i despesas.xlsx --entity SESI  # Generate forms into ./output
  rcdv model -o modelo_rcdv.xlsx                # Write the blank spreadsheet`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if verbose {
			cfg.LogLevel = "debug"
		}

		if err := logger.Init(cfg.LogLevel); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		appConfig = cfg
		appLogger = logger.Get()
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// --config flag: A missing file means defaults plus environment.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	// --verbose flag: Enables debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
