// =============================================================================
// RCDV Generator - Model Command
// =============================================================================
//
// COMMAND USAGE:
//   rcdv model [-o modelo_rcdv.xlsx]
//
// Writes the blank input spreadsheet. When the configuration names a model
// spreadsheet that exists, it is copied instead.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/rcdv-generator/internal/sheet"
	"github.com/ginjaninja78/rcdv-generator/pkg/utils"
)

var modelOutput string

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Write the blank input spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := writeModel(appConfig.ModelSpreadsheet, modelOutput); err != nil {
			return err
		}
		appLogger.Info("model spreadsheet written", zap.String("path", modelOutput))
		fmt.Fprintln(cmd.OutOrStdout(), modelOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)

	modelCmd.Flags().StringVarP(&modelOutput, "output", "o", sheet.ModelFileName, "Where to write the spreadsheet")
}

// writeModel copies source to dest, or generates the model when source is
// empty or missing.
func writeModel(source, dest string) error {
	return utils.WriteFileAtomic(dest, func(w io.Writer) error {
		if source == "" || !utils.FileExists(source) {
			return sheet.WriteModel(w)
		}

		f, err := os.Open(source)
		if err != nil {
			return fmt.Errorf("failed to open model spreadsheet: %w", err)
		}
		defer f.Close()

		_, err = io.Copy(w, f)
		return err
	})
}
