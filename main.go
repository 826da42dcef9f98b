// =============================================================================
// RCDV Generator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the RCDV generator. It initializes the
// Cobra CLI framework and delegates command execution to the cmd package.
//
// USAGE:
//   rcdv serve      - Run the HTTP API
//   rcdv generate   - Generate the forms of a spreadsheet into a zip
//   rcdv model      - Write the blank input spreadsheet
//   rcdv version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (sheet loading, aggregation, rendering)
//   - pkg/           : Shared utilities and logging
//   - templates/     : Form templates, one per entity
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/rcdv-generator/cmd"
)

func main() {
	cmd.Execute()
}
