package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/guardrail-oss/guardrail/internal/server"
	"github.com/guardrail-oss/guardrail/internal/telemetry"
	"github.com/guardrail-oss/guardrail/pkg/guardrail"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook ingestion server",
	Long: `Serve the reliability layer over HTTP so external workflow engines
can report outcomes with a webhook instead of the CLI.

Endpoints:
  POST /hooks/started    POST /hooks/completed   POST /hooks/failed
  POST /route            GET  /api/events        GET  /api/metrics

Examples:
  guardrail serve
  guardrail serve --addr :9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8420", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	client, err := guardrail.Open(".")
	if err != nil {
		return err
	}
	defer client.Close()

	logger := telemetry.NewLoggerWithFormat(verbose, client.Config().Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(client, logger).Start(ctx, serveAddr)
}
