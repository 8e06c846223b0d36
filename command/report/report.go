package report

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"grid-accounting/connectors/anonymizer"
	"grid-accounting/connectors/config"
	ccsv "grid-accounting/connectors/csv"
	"grid-accounting/connectors/destdb"
	"grid-accounting/connectors/sourcedb"
	"grid-accounting/domain/report"
	"grid-accounting/domain/usage"
)

// Run executes the report subcommand: the full submission pipeline, with
// anonymization and the transactional delete-then-insert into the destination
// store. Flags: -year, -month (defaults: the current period).
func Run(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	year := fs.Int("year", 0, "Reporting year (default: current year)")
	month := fs.Int("month", 0, "Reporting month 1-12 (default: current month)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	now := time.Now()
	if *year == 0 {
		*year = now.Year()
	}
	if *month == 0 {
		*month = int(now.Month())
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./config.yml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cfg.Destination.DSN == "" {
		return fmt.Errorf("%w: destination.dsn is required for report", usage.ErrConfiguration)
	}
	if cfg.Anonymizer.Command == "" {
		return fmt.Errorf("%w: anonymizer.command is required for report", usage.ErrConfiguration)
	}

	tiers, err := cfg.TierMap()
	if err != nil {
		return err
	}
	factors, err := cfg.Factors()
	if err != nil {
		return err
	}

	src, err := sourcedb.Open(cfg.Source.Driver, cfg.Source.DSN, cfg.Source.Table)
	if err != nil {
		return fmt.Errorf("%w: %v", usage.ErrSourceFetch, err)
	}
	defer src.Close()

	dst, err := destdb.Open(cfg.Destination.Driver, cfg.Destination.DSN)
	if err != nil {
		return fmt.Errorf("%w: %v", usage.ErrDestinationWrite, err)
	}
	defer dst.Close()

	slog.Info("report.start", "year", *year, "month", *month, "overlapDays", cfg.Report.OverlapDays)

	runner := &report.Runner{
		Source:       src,
		Dest:         dst,
		Anon:         anonymizer.New(cfg.Anonymizer.Command),
		Tiers:        tiers,
		ScaleFactors: factors,
		Table:        cfg.Destination.Table,
		OverlapDays:  cfg.Report.OverlapDays,
		YearMin:      cfg.Report.YearMin,
		YearMax:      cfg.Report.YearMax,
		Now:          time.Now,
		Out:          os.Stdout,
	}

	rows, err := runner.Submit(context.Background(), *year, *month)
	if err != nil {
		return err
	}
	if err := ccsv.WriteReportRows(filepath.Join("data", "report_rows.csv"), rows); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "report.done rows=%d\n", len(rows))
	return nil
}
