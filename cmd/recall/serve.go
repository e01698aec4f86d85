package main

import (
	"os"
	"os/signal"

	"github.com/sandevgo/recall/internal/transport/httpapi"
	"github.com/sandevgo/recall/pkg/log"
	"github.com/sandevgo/recall/pkg/srv"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Recall HTTP API",
	Long:  `Opens the message store and serves the session API (add message, get context, pin/unpin, clear) until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting recall")

		manager, cfg, db := newManager(ctx)

		services := []srv.Service{
			httpapi.NewServer(cfg.ListenAddr, manager),
			srv.NewCleanup(db.Close),
		}

		srv.StartServices(ctx, services)
		srv.ShutdownServices(ctx, services)

		logger.Info().Msg("recall has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
