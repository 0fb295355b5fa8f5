package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/kaveh8866/SemantIQ/internal/webserver"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var (
		port         int
		runsDir      string
		allowRemote  bool
		allowOrigins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run registry over HTTP",
		Long: `Start an HTTP server exposing the run registry as JSON.

Endpoints:
  GET  /api/health         Health check
  GET  /api/runs           Indexed runs (?sort=timestamp|score|benchmark|model&order=asc|desc)
  GET  /api/runs/{id}      Full result of one run
  GET  /api/summary        Aggregate scores per benchmark
  POST /api/index/rebuild  Rebuild the index from the run store

The server binds to loopback unless --allow-remote is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := loadProject(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = pc.Server.Port
			}
			if runsDir == "" {
				runsDir = pc.Resolve(pc.Paths.Runs)
			}

			host := "127.0.0.1"
			if allowRemote {
				host = "0.0.0.0"
				slog.Warn("HTTP server binding to all interfaces, no authentication is provided")
			}

			srv, err := webserver.New(webserver.Config{
				Host:           host,
				Port:           port,
				RunsDir:        runsDir,
				AllowedOrigins: allowOrigins,
				Logger:         slog.Default(),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, p, _ := net.SplitHostPort(srv.Addr())
			fmt.Fprintf(cmd.ErrOrStderr(), "semantiq registry: http://localhost:%s/api/runs\n", p) //nolint:errcheck
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from .semantiq.yaml)")
	cmd.Flags().StringVar(&runsDir, "runs-dir", "", "Run store directory (default from .semantiq.yaml)")
	cmd.Flags().BoolVar(&allowRemote, "allow-remote", false, "Bind to all interfaces (WARNING: no authentication)")
	cmd.Flags().StringArrayVar(&allowOrigins, "allow-origin", nil, "Origin allowed for CORS requests (can be repeated)")

	return cmd
}
