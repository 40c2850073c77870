package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"infrapulse/internal/operations"
)

func newServeCmd(g *globals) *cobra.Command {
	var (
		port       int
		runOnStart bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports, runs and live progress over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("port") {
				g.cfg.Server.Port = port
			}

			a, err := g.application(ctx)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), g.cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := a.Close(closeCtx); err != nil {
					g.logger.Error("shutdown incomplete", slog.String("error", err.Error()))
				}
			}()

			if runOnStart {
				if req, err := a.Reports.Start(operations.RunRequest{}); err != nil {
					g.logger.Warn("startup run not started", slog.String("error", err.Error()))
				} else {
					g.logger.Info("startup run started", slog.String("run_id", req.ID))
				}
			}

			start := time.Now()
			err = a.Serve(ctx)
			g.logger.Info("server stopped", slog.Duration("uptime", time.Since(start)))
			return err
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port")
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "start an aggregation run as soon as the server is up")
	return cmd
}
