package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"jpxcli/internal/app"
	"jpxcli/internal/config"
	"jpxcli/internal/exporter"
	"jpxcli/internal/infrastructure"
	"jpxcli/internal/services"
	"jpxcli/pkg/contracts"
)

// cli holds the state shared by the subcommands.
type cli struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

// output selects where a command writes its table.
type output struct {
	format string
	path   string
	save   bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "jpxreport",
		Short: "JPX participant open interest and volume reports",
		Long: `jpxreport extracts per-participant open interest and trading volume from
the JPX Excel publications and aggregates them into weekly views:

  scan     list the workbooks kept under the reports directory
  parse    normalize workbooks into position, volume or daily balance records
  strikes  build the option strike ladder for one side
  weekly   build the futures participant week
  gex      compute the gamma exposure profile of a contract month
  serve    expose the same operations over HTTP`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "YAML config file (default $JPX_CONFIG or ./jpxreport.yaml)")
	pf.StringVar(&c.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		c.scanCmd(),
		c.parseCmd(),
		c.strikesCmd(),
		c.weeklyCmd(),
		c.gexCmd(),
		c.serveCmd(),
		versionCmd(),
	)
	return root
}

func (c *cli) init() error {
	var err error
	if c.configPath != "" {
		c.cfg, err = config.LoadFile(c.configPath)
	} else {
		c.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		c.cfg.Logging.Level = c.logLevel
	}

	c.logger, err = infrastructure.NewLogger(c.cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(c.logger)
	return nil
}

func (c *cli) components() (*app.Components, error) {
	return app.NewComponents(c.cfg, c.logger, contracts.Version)
}

func shutdown(comps *app.Components) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = comps.Shutdown(ctx)
}

func addOutputFlags(cmd *cobra.Command, o *output) {
	f := cmd.Flags()
	f.StringVarP(&o.format, "format", "f", "", "output format: csv, json, parquet or xlsx (default export.format)")
	f.StringVarP(&o.path, "out", "o", "", "write to this file instead of stdout")
	f.BoolVar(&o.save, "save", false, "write into export.dir as <table>_<yyyymmdd>.<format>")
}

// emit writes ds to stdout, a file, or the export directory.
func (o output) emit(cmd *cobra.Command, ex *exporter.Writer, ds exporter.Dataset, date time.Time) error {
	format, err := ex.Format(o.format)
	if err != nil {
		return err
	}

	if o.save {
		path, err := ex.WriteFile(ds, date, string(format))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	}

	if o.path == "" || o.path == "-" {
		return ex.Write(cmd.OutOrStdout(), format, ds)
	}
	f, err := os.Create(o.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", o.path, err)
	}
	if err := ex.Write(f, format, ds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// collect logs failures and diagnostics and returns the parsed reports.
func (c *cli) collect(ctx context.Context, results []services.BatchResult) ([]*services.ParsedReport, int) {
	var reports []*services.ParsedReport
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			c.logger.ErrorContext(ctx, "workbook failed",
				slog.String("name", r.Name),
				slog.String("error", r.Err.Error()))
			continue
		}
		for _, d := range r.Report.Diagnostics {
			c.logger.WarnContext(ctx, d.Message,
				slog.String("name", r.Name),
				slog.String("sheet", d.Sheet),
				slog.Int("row", d.Row),
				slog.Int("col", d.Col))
		}
		reports = append(reports, r.Report)
	}
	return reports, failed
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// The version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
		},
	}
}
