package main

import (
	"github.com/spf13/cobra"

	"github.com/carepath/memcore/pkg/log"
)

var summarizeCmd = &cobra.Command{
	Use:           "summarize <session-id>",
	Short:         "Summarize a session's unsummarized backlog now",
	Long:          `Runs one summarization pass for the session without waiting for the background worker.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		a := newApp(ctx)
		defer a.Close()

		if err := a.worker.SummarizeSession(ctx, args[0]); err != nil {
			return err
		}

		log.FromCtx(ctx).Info().Str("session", args[0]).Msg("summarization pass complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}
