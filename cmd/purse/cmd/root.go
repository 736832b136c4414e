package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/purse/internal/app"
	"github.com/bobmcallan/purse/internal/common"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "purse",
	Short: "A multi-currency bookkeeping ledger",
	Long: `Purse keeps per-account balances and security positions in step with
recorded cash transactions, security trades and currency exchanges, and
reconstructs the monthly net-worth trend from the event history.

Example:
  purse import ledger.yaml
  purse balances
  purse trend --from 2024-01-01 --chart trend.png`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $PURSE_CONFIG, then purse.toml next to the binary)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at info level instead of warn")
}

// withApp opens the ledger for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	config, err := common.LoadConfig(app.ResolveConfigPath(cfgFile))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !verbose {
		config.Logging.Level = "warn"
	}

	a, err := app.NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging))
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}
