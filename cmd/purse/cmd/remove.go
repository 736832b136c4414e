package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/purse/internal/app"
	"github.com/bobmcallan/purse/internal/models"
)

var removeCmd = &cobra.Command{
	Use:   "remove <kind> <id>",
	Short: "Retract an event and delete its record",
	Long: `Remove reverses the event's effect on balances and positions and deletes
it. Kind is cash, trade or exchange. Cash and exchange records are kept with a
deletion marker; trades are removed outright.`,
	Args: cobra.ExactArgs(2),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	kind, err := models.ParseEventKind(args[0])
	if err != nil {
		return err
	}
	ref := models.EventRef{Kind: kind, ID: args[1]}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.BookkeepingService.Remove(ctx, ref); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", ref)
		return nil
	})
}
