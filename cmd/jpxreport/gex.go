package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"jpxcli/internal/app"
	"jpxcli/internal/exporter"
	"jpxcli/internal/files"
	"jpxcli/internal/services"
	"jpxcli/pkg/contracts/domain"
)

type gexFlags struct {
	contractMonth string
	balances      []string
	positions     []string
	spot          float64
	sigma         float64
	rate          float64
	asOf          string
}

func (c *cli) gexCmd() *cobra.Command {
	var (
		f   gexFlags
		out output
	)
	cmd := &cobra.Command{
		Use:   "gex --month YYMM [--balances FILE... | --positions FILE...]",
		Short: "Compute the gamma exposure profile of one contract month",
		Long: `Compute per-strike gamma exposure from the open interest of the latest
report date, valued at the contract month's special quotation date (the
second Friday). Calls count as positive dealer gamma and puts as negative.

Open interest comes from --balances daily-oi workbooks, or from the long
side of --positions option-oi workbooks. With neither flag the newest
daily-oi workbook under paths.reports_dir is used. --spot, --sigma and
--rate override the gex section of the config.`,
		Example: `  jpxreport gex --month 2602 --spot 38500 --sigma 0.22
  jpxreport gex --month 2603 --positions oi_0130.xlsx -f xlsx -o gex.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := services.GEXInput{
				ContractMonth: f.contractMonth,
				Spot:          f.spot,
				Sigma:         f.sigma,
				Rate:          f.rate,
			}
			if f.asOf != "" {
				d, err := time.Parse(domain.DateLayout, f.asOf)
				if err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
				in.AsOf = d
			}

			comps, err := c.components()
			if err != nil {
				return err
			}
			defer shutdown(comps)
			ctx := cmd.Context()

			balances := f.balances
			if len(balances) == 0 && len(f.positions) == 0 {
				if balances, err = c.latestWorkbook(domain.ReportDailyOI); err != nil {
					return err
				}
			}
			if in.Balances, err = c.loadBalances(ctx, comps, balances); err != nil {
				return err
			}
			if in.Positions, err = c.loadPositions(ctx, comps, domain.ReportOptionOI, f.positions); err != nil {
				return err
			}

			view, err := comps.Aggregates.GEX(ctx, in)
			if err != nil {
				return err
			}
			p := view.Profile
			flip := "none"
			if v, ok := p.FlipPoint.Get(); ok {
				flip = fmt.Sprintf("%.0f", v)
			}
			c.logger.InfoContext(ctx, "gamma exposure",
				slog.String("contract_month", p.ContractMonth),
				slog.String("as_of", p.AsOf.Format(domain.DateLayout)),
				slog.Int("days_to_sq", p.DaysToExpiry),
				slog.Float64("total_net_gex", p.TotalNetGEX),
				slog.String("flip_point", flip))
			return out.emit(cmd, comps.Exporter, exporter.GEXProfile(p), p.AsOf)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.contractMonth, "month", "", "option contract month as YYMM")
	fl.StringSliceVar(&f.balances, "balances", nil, "daily-oi workbooks")
	fl.StringSliceVar(&f.positions, "positions", nil, "option-oi workbooks")
	fl.Float64Var(&f.spot, "spot", 0, "underlying price (default gex.spot)")
	fl.Float64Var(&f.sigma, "sigma", 0, "flat implied volatility, 0.2 for 20% (default gex.sigma)")
	fl.Float64Var(&f.rate, "rate", 0, "risk-free rate (default gex.rate)")
	fl.StringVar(&f.asOf, "as-of", "", "valuation date as YYYY-MM-DD (default: the open interest date)")
	_ = cmd.MarkFlagRequired("month")
	cmd.MarkFlagsMutuallyExclusive("balances", "positions")
	addOutputFlags(cmd, &out)
	return cmd
}

// latestWorkbook returns the path of the newest workbook of kind under the
// reports directory.
func (c *cli) latestWorkbook(kind domain.ReportKind) ([]string, error) {
	ws, err := c.inventory(kind, dateRange{})
	if err != nil {
		return nil, err
	}
	w, ok := files.Latest(ws, kind)
	if !ok {
		return nil, fmt.Errorf("no %s workbooks under %s", kind, c.cfg.Paths.ReportsDir)
	}
	c.logger.Info("using latest workbook", slog.String("kind", string(kind)), slog.String("path", w.Path))
	return []string{w.Path}, nil
}

func (c *cli) loadBalances(ctx context.Context, comps *app.Components, paths []string) ([]domain.DailyOIBalance, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	reports, err := c.loadAll(ctx, comps, domain.ReportDailyOI, paths)
	if err != nil {
		return nil, err
	}
	var out []domain.DailyOIBalance
	for _, r := range reports {
		out = append(out, r.Balances...)
	}
	return out, nil
}
