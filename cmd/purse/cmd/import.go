package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/purse/internal/app"
)

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Record accounts, securities and events from a YAML file",
	Long: `Import reads a YAML document with accounts, securities and events sections
and records each entry through the normal mutation path. Entries whose id
already exists are skipped, so re-running an import is safe. Import stops at
the first event the ledger rejects.

Example event entries:
  - kind: cash
    timestamp: 2024-01-05
    type: income
    amount: "2500.00"
    currency: EUR
    receive_account: checking
  - kind: trade
    timestamp: 2024-02-01
    type: buy
    account: broker
    security: acme
    quantity: "10"
    price: "101.25"
    fee: "1.50"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		res, err := a.ImportLedgerFromFile(ctx, args[0])
		if res != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts, %d securities, %d events (%d skipped)\n",
				res.Accounts, res.Securities, res.Events, res.Skipped)
		}
		return err
	})
}
