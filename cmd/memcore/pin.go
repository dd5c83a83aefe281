package main

import (
	"github.com/spf13/cobra"

	"github.com/carepath/memcore/internal/core"
	"github.com/carepath/memcore/pkg/log"
)

var (
	pinImportance float64
	pinType       string
)

var pinCmd = &cobra.Command{
	Use:           "pin <session-id> <content>",
	Short:         "Pin a durable fact to a session",
	Long:          `Stores a fact that survives context truncation, e.g. an allergy or a standing preference.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		a := newApp(ctx)
		defer a.Close()

		pin, err := a.engine.CreatePin(ctx, args[0], core.PinRequest{
			Content:         args[1],
			ImportanceScore: pinImportance,
			PinType:         pinType,
		})
		if err != nil {
			return err
		}

		log.FromCtx(ctx).Info().
			Int64("pin_id", pin.ID).
			Float64("importance", pin.ImportanceScore).
			Msg("pin created")
		return nil
	},
}

func init() {
	pinCmd.Flags().Float64Var(&pinImportance, "importance", 0, "importance score in [0,1], 0 selects the default")
	pinCmd.Flags().StringVar(&pinType, "type", "", "pin type: manual, code, concept or system")
	rootCmd.AddCommand(pinCmd)
}
