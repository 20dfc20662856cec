package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"jpxcli/internal/app"
	"jpxcli/internal/dataprocessing"
	"jpxcli/internal/exporter"
	"jpxcli/internal/services"
	"jpxcli/pkg/contracts/domain"
)

type strikesFlags struct {
	side          string
	product       string
	contractMonth string
	days          []string
	preset        string
	center        int
	volumes       []string
	positions     []string
	baseline      []string
	closing       []string
	participants  []string
}

func (c *cli) strikesCmd() *cobra.Command {
	var (
		f   strikesFlags
		out output
	)
	cmd := &cobra.Command{
		Use:   "strikes --side PUT|CALL (--volumes FILE... | --positions FILE...)",
		Short: "Build the option strike ladder for one side",
		Long: `Build the strike ladder: one row per strike, one column per trading day.

Figures are the summed participant volumes of --volumes workbooks, or the
net open interest of --positions option-oi workbooks. --baseline adds the
prior week's net open interest column and --closing the long, short and
net open interest of the report that closes the week. --participant keeps
only the named participant codes. Strikes outside the preset band around
--center are dropped; the "all" preset keeps every strike.

Without --days the columns are every trading day from the first to the
last date with figures, so a quiet day shows as an empty cell.`,
		Example: `  jpxreport strikes --side PUT --month 2602 --center 38500 --preset atm10 \
      --volumes vol_0126.xlsx,vol_0127.xlsx --baseline oi_0123.xlsx --closing oi_0130.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			side, err := domain.ParseInstrumentType(f.side)
			if err != nil {
				return err
			}
			days := make([]time.Time, len(f.days))
			for i, d := range f.days {
				if days[i], err = time.Parse(domain.DateLayout, d); err != nil {
					return fmt.Errorf("--days: %w", err)
				}
			}

			comps, err := c.components()
			if err != nil {
				return err
			}
			defer shutdown(comps)
			ctx := cmd.Context()

			in := services.StrikesInput{
				Side:           side,
				Product:        f.product,
				ContractMonth:  f.contractMonth,
				ParticipantIDs: f.participants,
				Days:           days,
				Preset:         f.preset,
				Center:         f.center,
			}
			if in.Volumes, err = c.loadVolumes(ctx, comps, f.volumes); err != nil {
				return err
			}
			if in.Positions, err = c.loadPositions(ctx, comps, domain.ReportOptionOI, f.positions); err != nil {
				return err
			}
			if in.Baseline, err = c.loadPositions(ctx, comps, domain.ReportOptionOI, f.baseline); err != nil {
				return err
			}
			if in.Closing, err = c.loadPositions(ctx, comps, domain.ReportOptionOI, f.closing); err != nil {
				return err
			}

			rows, err := comps.Aggregates.Strikes(ctx, in)
			if err != nil {
				return err
			}
			return out.emit(cmd, comps.Exporter, exporter.StrikeLadder(side, rows), lastDay(rows))
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.side, "side", "", "PUT or CALL")
	fl.StringVar(&f.product, "product", "", "product code filter, e.g. NK225E")
	fl.StringVar(&f.contractMonth, "month", "", "contract month filter as YYMM")
	fl.StringSliceVar(&f.days, "days", nil, "ladder columns as YYYY-MM-DD (default: every trading day between the first and last figure)")
	fl.StringVar(&f.preset, "preset", "", "strike band preset (default display.default_preset)")
	fl.IntVar(&f.center, "center", 0, "center strike of the band")
	fl.StringSliceVar(&f.volumes, "volumes", nil, "volume workbooks")
	fl.StringSliceVar(&f.positions, "positions", nil, "option-oi workbooks")
	fl.StringSliceVar(&f.baseline, "baseline", nil, "option-oi workbooks of the prior week close")
	fl.StringSliceVar(&f.closing, "closing", nil, "option-oi workbooks of this week's close")
	fl.StringSliceVar(&f.participants, "participant", nil, "participant codes to keep (default: all)")
	_ = cmd.MarkFlagRequired("side")
	cmd.MarkFlagsOneRequired("volumes", "positions")
	cmd.MarkFlagsMutuallyExclusive("volumes", "positions")
	addOutputFlags(cmd, &out)
	return cmd
}

type weeklyFlags struct {
	openInterest  []string
	volumes       []string
	product       string
	contractMonth string
	week          int
}

func (c *cli) weeklyCmd() *cobra.Command {
	var (
		f   weeklyFlags
		out output
	)
	cmd := &cobra.Command{
		Use:   "weekly --oi FILE... [--volumes FILE...]",
		Short: "Build the futures participant week",
		Long: `Build the weekly futures view: per participant the opening and closing
open interest, daily volumes, week total, net change and inferred direction,
with 20-day volume statistics.

Weeks run between consecutive open interest report dates and are numbered
newest first; --week 0 is the latest.`,
		Example: `  jpxreport weekly --product NK225F --month 2603 \
      --oi oi_0123.xlsx,oi_0130.xlsx --volumes vol_*.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := c.components()
			if err != nil {
				return err
			}
			defer shutdown(comps)
			ctx := cmd.Context()

			in := services.WeeklyInput{
				Product:       f.product,
				ContractMonth: f.contractMonth,
				Week:          f.week,
			}
			if in.OpenInterest, err = c.loadPositions(ctx, comps, domain.ReportFuturesOI, f.openInterest); err != nil {
				return err
			}
			if in.Volumes, err = c.loadVolumes(ctx, comps, f.volumes); err != nil {
				return err
			}

			view, err := comps.Aggregates.Weekly(ctx, in)
			if err != nil {
				return err
			}
			c.logger.InfoContext(ctx, "week selected",
				slog.String("week", view.Week.Label),
				slog.Any("available", view.Weeks),
				slog.Int("participants", len(view.Rows)))

			date := view.Week.StartOIDate
			if view.Week.EndOIDate != nil {
				date = *view.Week.EndOIDate
			}
			return out.emit(cmd, comps.Exporter, exporter.ParticipantWeek(view.Rows), date)
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVar(&f.openInterest, "oi", nil, "futures-oi workbooks")
	fl.StringSliceVar(&f.volumes, "volumes", nil, "volume workbooks")
	fl.StringVar(&f.product, "product", "", "product code filter, e.g. NK225F")
	fl.StringVar(&f.contractMonth, "month", "", "contract month filter as YYMM")
	fl.IntVar(&f.week, "week", 0, "week index, newest first")
	_ = cmd.MarkFlagRequired("oi")
	addOutputFlags(cmd, &out)
	return cmd
}

// loadVolumes parses volume workbooks and merges their sessions. Any
// failing workbook fails the command.
func (c *cli) loadVolumes(ctx context.Context, comps *app.Components, paths []string) ([]domain.ParticipantVolumeRecord, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	reports, err := c.loadAll(ctx, comps, domain.ReportVolume, paths)
	if err != nil {
		return nil, err
	}
	lists := make([][]domain.ParticipantVolumeRecord, len(reports))
	for i, r := range reports {
		lists[i] = r.Volumes
	}
	return dataprocessing.MergeVolumeSessions(lists...), nil
}

func (c *cli) loadPositions(ctx context.Context, comps *app.Components, kind domain.ReportKind, paths []string) ([]domain.ParticipantPositionRecord, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	reports, err := c.loadAll(ctx, comps, kind, paths)
	if err != nil {
		return nil, err
	}
	var recs []domain.ParticipantPositionRecord
	for _, r := range reports {
		recs = append(recs, r.Positions...)
	}
	return recs, nil
}

func (c *cli) loadAll(ctx context.Context, comps *app.Components, kind domain.ReportKind, paths []string) ([]*services.ParsedReport, error) {
	reports, failed := c.collect(ctx, comps.Reports.ParseFiles(ctx, kind, paths))
	if failed > 0 {
		return nil, fmt.Errorf("%d of %d %s workbooks failed", failed, len(paths), kind)
	}
	return reports, nil
}

func lastDay(rows []domain.StrikeAggregateRow) time.Time {
	var last time.Time
	for _, r := range rows {
		for _, d := range r.Daily {
			if d.Date.After(last) {
				last = d.Date
			}
		}
	}
	return last
}
