package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"jpxcli/internal/files"
	"jpxcli/pkg/contracts/domain"
)

// dateRange holds --from/--to as typed on the command line.
type dateRange struct {
	from, to string
}

func (r dateRange) bounds() (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if r.from != "" {
		if from, err = time.Parse(time.DateOnly, r.from); err != nil {
			return from, to, fmt.Errorf("invalid --from %q: want YYYY-MM-DD", r.from)
		}
	}
	if r.to != "" {
		if to, err = time.Parse(time.DateOnly, r.to); err != nil {
			return from, to, fmt.Errorf("invalid --to %q: want YYYY-MM-DD", r.to)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fmt.Errorf("--to %s is before --from %s", r.to, r.from)
	}
	return from, to, nil
}

// inventory lists the workbooks under the reports directory that match
// kind and span. An empty kind matches every kind.
func (c *cli) inventory(kind domain.ReportKind, span dateRange) ([]files.Workbook, error) {
	from, to, err := span.bounds()
	if err != nil {
		return nil, err
	}
	ws, err := files.NewDiscovery(c.cfg.Paths.ReportsDir).Workbooks()
	if err != nil {
		return nil, err
	}
	return files.Filter(ws, kind, from, to), nil
}

// discover returns the paths of the matching workbooks, failing when none
// is found.
func (c *cli) discover(kind domain.ReportKind, span dateRange) ([]string, error) {
	ws, err := c.inventory(kind, span)
	if err != nil {
		return nil, err
	}
	if len(ws) == 0 {
		return nil, fmt.Errorf("no %s workbooks under %s", kind, c.cfg.Paths.ReportsDir)
	}
	c.logger.Info("discovered workbooks",
		slog.String("kind", string(kind)),
		slog.Int("count", len(ws)),
		slog.String("dir", c.cfg.Paths.ReportsDir))
	return files.Paths(ws), nil
}

func (c *cli) scanCmd() *cobra.Command {
	var (
		kindName string
		span     dateRange
		latest   bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the workbooks kept under the reports directory",
		Long: `List the JPX workbooks found under paths.reports_dir with the report kind
told from each file name and the trade date of its yyyymmdd prefix.`,
		Example: `  jpxreport scan
  jpxreport scan --kind option-oi --from 2026-01-01
  jpxreport scan --latest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind domain.ReportKind
			if kindName != "" {
				k, err := domain.ParseReportKind(kindName)
				if err != nil {
					return err
				}
				kind = k
			}

			ws, err := c.inventory(kind, span)
			if err != nil {
				return err
			}
			if latest {
				ws = latestPerKind(ws)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if ws == nil {
					ws = []files.Workbook{}
				}
				return enc.Encode(ws)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tDATE\tSIZE\tPATH")
			for _, w := range ws {
				date := "-"
				if !w.Date.IsZero() {
					date = w.Date.Format(time.DateOnly)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", w.Kind, date, w.Size, w.Path)
			}
			return tw.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVar(&kindName, "kind", "", "only this kind: futures-oi, option-oi, volume or daily-oi")
	f.StringVar(&span.from, "from", "", "earliest file date as YYYY-MM-DD")
	f.StringVar(&span.to, "to", "", "latest file date as YYYY-MM-DD")
	f.BoolVar(&latest, "latest", false, "only the newest workbook of each kind")
	f.BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func latestPerKind(ws []files.Workbook) []files.Workbook {
	var out []files.Workbook
	for _, kind := range []domain.ReportKind{
		domain.ReportFuturesOI, domain.ReportOptionOI, domain.ReportVolume, domain.ReportDailyOI,
	} {
		if w, ok := files.Latest(ws, kind); ok {
			out = append(out, w)
		}
	}
	return out
}
