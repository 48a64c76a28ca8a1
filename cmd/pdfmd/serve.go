package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfmd/internal/convert"
	"github.com/pdiddy/pdfmd/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversion API over HTTP",
	Long: `Serve starts the REST API. POST /parse-pdf returns the Markdown and
processing metadata as JSON; POST /parse-pdf-file returns the Markdown as a
file download. Both require "Authorization: Bearer <key>" where the key comes
from server.api_key, PDF_PARSER_API_KEY or .secrets/pdfmd-api-key.

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scfg := cfg
		if f := cmd.Flags().Lookup("addr"); f.Changed {
			scfg.Server.Addr = f.Value.String()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := convert.NewFromConfig(ctx, scfg, logger)
		if err != nil {
			return err
		}
		logger.WithField("analysis", svc.AnalysisAvailable()).Info("conversion service ready")

		return server.New(svc, scfg, version, logger).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8000", "listen address (overrides server.addr)")

	rootCmd.AddCommand(serveCmd)
}
