package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-wordfill/pkg/wordfill/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr      string
		grace     time.Duration
		maxUpload int64
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendering over HTTP",
		Long: `Starts an HTTP server with:

  POST /render    multipart form: template file, data file or JSON value
  POST /validate  raw template body, JSON report
  GET  /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			srv := server.New(a.engine, server.WithMaxUpload(maxUpload))
			return srv.ListenAndServe(ctx, addr, grace)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().DurationVar(&grace, "shutdown-timeout", 10*time.Second, "Grace period for in-flight requests")
	cmd.Flags().Int64Var(&maxUpload, "max-upload", server.DefaultMaxUpload, "Request body limit in bytes")
	return cmd
}
