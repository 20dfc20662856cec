package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jpxcli/internal/dataprocessing"
	"jpxcli/internal/exporter"
	"jpxcli/internal/services"
	"jpxcli/pkg/contracts/domain"
)

func (c *cli) parseCmd() *cobra.Command {
	var (
		out  output
		span dateRange
	)
	cmd := &cobra.Command{
		Use:   "parse <kind> [workbook...]",
		Short: "Parse workbooks of one kind into normalized records",
		Long: `Parse JPX workbooks and print the normalized records as one table.

Kinds: futures-oi, option-oi, volume, daily-oi.

Volume workbooks of several sessions for the same trade date are merged
into one record per participant and contract. A failing workbook is logged
and skipped; the command still prints the others and exits non-zero.

Without workbook arguments the workbooks of the kind found under
paths.reports_dir are parsed, optionally limited by --from and --to.`,
		Example: `  jpxreport parse option-oi 20260130_nk225op_oi_by_tp.xlsx
  jpxreport parse volume -f xlsx --save day.xlsx night.xlsx
  jpxreport parse volume --from 2026-01-26 --to 2026-01-30`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseReportKind(args[0])
			if err != nil {
				return err
			}

			paths := args[1:]
			if len(paths) == 0 {
				if paths, err = c.discover(kind, span); err != nil {
					return err
				}
			}

			comps, err := c.components()
			if err != nil {
				return err
			}
			defer shutdown(comps)

			ctx := cmd.Context()
			results := comps.Reports.ParseFiles(ctx, kind, paths)
			reports, failed := c.collect(ctx, results)
			if len(reports) == 0 {
				return fmt.Errorf("no workbook could be parsed (%d failed)", failed)
			}

			ds, date := combine(kind, reports)
			if err := out.emit(cmd, comps.Exporter, ds, date); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d workbooks failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&span.from, "from", "", "earliest file date as YYYY-MM-DD when discovering")
	cmd.Flags().StringVar(&span.to, "to", "", "latest file date as YYYY-MM-DD when discovering")
	addOutputFlags(cmd, &out)
	return cmd
}

// combine concatenates the records of reports into one dataset dated by
// the latest report.
func combine(kind domain.ReportKind, reports []*services.ParsedReport) (exporter.Dataset, time.Time) {
	var latest time.Time
	for _, r := range reports {
		if r.Metadata.ReportDate.After(latest) {
			latest = r.Metadata.ReportDate
		}
	}

	switch kind {
	case domain.ReportVolume:
		lists := make([][]domain.ParticipantVolumeRecord, len(reports))
		for i, r := range reports {
			lists[i] = r.Volumes
		}
		return exporter.VolumeRecords(dataprocessing.MergeVolumeSessions(lists...)), latest
	case domain.ReportDailyOI:
		var recs []domain.DailyOIBalance
		for _, r := range reports {
			recs = append(recs, r.Balances...)
		}
		return exporter.DailyOIBalances(recs), latest
	}
	var recs []domain.ParticipantPositionRecord
	for _, r := range reports {
		recs = append(recs, r.Positions...)
	}
	return exporter.PositionRecords(recs), latest
}
