package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/bobmcallan/purse/internal/app"
	"github.com/bobmcallan/purse/internal/models"
	"github.com/bobmcallan/purse/internal/services/trend"
)

var (
	rateFlags  map[string]string
	trendFrom  string
	trendChart string
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "List every account balance per currency",
	Args:  cobra.NoArgs,
	RunE:  runBalances,
}

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List security positions with average cost",
	Args:  cobra.NoArgs,
	RunE:  runPositions,
}

var networthCmd = &cobra.Command{
	Use:   "networth",
	Short: "Total balances and position costs in the home currency",
	Long: `Networth converts every currency to the home currency with the [rates]
table from the config, overridden by any --rate flags.

Example:
  purse networth --rate USD=0.92 --rate GBP=1.17`,
	Args: cobra.NoArgs,
	RunE: runNetWorth,
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Reconstruct the monthly net-worth series",
	Long: `Trend walks recorded cash flows and realized trade gains backwards from
the current net worth to produce one figure per calendar month.

Example:
  purse trend --from 2024-01-01 --chart trend.png`,
	Args: cobra.NoArgs,
	RunE: runTrend,
}

func init() {
	rootCmd.AddCommand(balancesCmd, positionsCmd, networthCmd, trendCmd)

	networthCmd.Flags().StringToStringVar(&rateFlags, "rate", nil, "conversion rate override CUR=value (repeatable)")
	trendCmd.Flags().StringToStringVar(&rateFlags, "rate", nil, "conversion rate override CUR=value (repeatable)")
	trendCmd.Flags().StringVarP(&trendFrom, "from", "f", "", "period start YYYY-MM-DD (default: config trend.default_span ago)")
	trendCmd.Flags().StringVar(&trendChart, "chart", "", "write a PNG chart to this path")
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

func runBalances(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		balances, err := a.BookkeepingService.Balances(ctx)
		if err != nil {
			return err
		}
		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintln(tw, "ACCOUNT\tCURRENCY\tAMOUNT\t")
		for _, b := range balances {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", b.Account, b.Currency, models.FormatAmount(b.Amount, b.Currency))
		}
		return tw.Flush()
	})
}

func runPositions(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		positions, err := a.BookkeepingService.Positions(ctx)
		if err != nil {
			return err
		}
		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintln(tw, "ACCOUNT\tSECURITY\tQUANTITY\tCOST\tAVG COST\t")
		for _, p := range positions {
			if p.Quantity.IsZero() {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", p.Account, p.Security, p.Quantity.String(),
				models.FormatAmount(p.Cost, p.Currency), p.AvgCost.StringFixed(4))
		}
		return tw.Flush()
	})
}

func runNetWorth(cmd *cobra.Command, args []string) error {
	rates, err := parseRateFlags(rateFlags)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		nw, err := a.NetWorthService.NetWorth(ctx, rates)
		if err != nil {
			return err
		}
		currencies := make([]string, 0, len(nw.Breakdown))
		for cur := range nw.Breakdown {
			currencies = append(currencies, cur)
		}
		sort.Strings(currencies)

		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintln(tw, "CURRENCY\tAMOUNT\t")
		for _, cur := range currencies {
			fmt.Fprintf(tw, "%s\t%s\t\n", cur, models.FormatAmount(nw.Breakdown[cur], cur))
		}
		fmt.Fprintf(tw, "TOTAL\t%s\t\n", models.FormatAmount(nw.Total, nw.Currency))
		return tw.Flush()
	})
}

func runTrend(cmd *cobra.Command, args []string) error {
	rates, err := parseRateFlags(rateFlags)
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		cfg := a.Config.Trend
		from := time.Now().Add(-cfg.GetDefaultSpan())
		if trendFrom != "" {
			if from, err = time.ParseInLocation("2006-01-02", trendFrom, cfg.GetLocation()); err != nil {
				return &models.ValidationError{Field: "from", Reason: "must be YYYY-MM-DD"}
			}
		}

		tr, err := a.TrendService.Trend(ctx, from, rates)
		if err != nil {
			return err
		}

		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintln(tw, "MONTH\tNET WORTH\t")
		for _, p := range tr.Points {
			fmt.Fprintf(tw, "%s\t%s\t\n", p.Month.Format("2006-01"), models.FormatAmount(p.Total, tr.Currency))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if trendChart == "" {
			return nil
		}
		png, err := trend.RenderChart(tr, cfg.ChartWidth, cfg.ChartHeight)
		if err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
		if err := os.WriteFile(trendChart, png, 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", trendChart)
		return nil
	})
}

func parseRateFlags(flags map[string]string) (models.Rates, error) {
	rates := models.Rates{}
	for code, value := range flags {
		code = models.NormalizeCurrency(code)
		if err := models.ValidateCurrency(code); err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(value)
		if err != nil || !rate.IsPositive() {
			return nil, &models.ValidationError{Field: "rate " + code, Reason: "must be a positive number"}
		}
		rates[code] = rate
	}
	return rates, nil
}
