package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carepath/memcore/internal/service/ui"
)

var statsCmd = &cobra.Command{
	Use:           "stats <session-id>",
	Short:         "Show memory statistics for a session",
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

		stats, err := a.engine.Stats(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Println(ui.TitleStyle.Render("SESSION " + args[0]))
		printStat("messages", fmt.Sprintf("%d", stats.TotalMessages))
		printStat("summaries", fmt.Sprintf("%d", stats.TotalSummaries))
		printStat("pins", fmt.Sprintf("%d", stats.TotalPins))
		printStat("avg importance", fmt.Sprintf("%.2f", stats.AverageImportance))
		if stats.OldestMessageAt != nil {
			printStat("oldest message", stats.OldestMessageAt.Format(time.RFC3339))
		}
		if stats.NewestMessageAt != nil {
			printStat("newest message", stats.NewestMessageAt.Format(time.RFC3339))
		}
		return nil
	},
}

func printStat(label, value string) {
	fmt.Printf("  %s %s\n", ui.LabelStyle.Render(fmt.Sprintf("%-16s", label)), value)
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
