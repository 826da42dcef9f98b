// =============================================================================
// RCDV Generator - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   rcdv serve [--port 8000]
//
// The server stops gracefully on SIGINT or SIGTERM.
//
// =============================================================================

package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/rcdv-generator/internal/api"
)

// port overrides the configured listen port.
var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API used by the web front-end:

  GET  /                 status
  GET  /download-modelo  blank input spreadsheet
  POST /gerar-rcdv       spreadsheet upload, returns a zip of forms`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if port != "" {
			appConfig.Server.Port = port
		}

		gen, err := newGenerator(appConfig, appLogger)
		if err != nil {
			return err
		}

		appLogger.Info("starting RCDV API",
			zap.String("templates", appConfig.Templates.Dir),
			zap.String("renderer", appConfig.Templates.Renderer),
			zap.String("locale", appConfig.Locale),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return api.NewServer(appConfig, gen, appLogger).Listen(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides the configuration)")
}
