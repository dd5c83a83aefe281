package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/carepath/memcore/pkg/log"
	"github.com/carepath/memcore/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the MemCore summarization worker",
	Long:  `Initializes storage and the LLM provider and runs the background summarization worker until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting memcore")

		services := NewServices(ctx)

		srv.StartServices(ctx, services)

		// Wait for shutdown signal
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("memcore has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
