package preview

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"grid-accounting/connectors/config"
	ccsv "grid-accounting/connectors/csv"
	"grid-accounting/connectors/sourcedb"
	"grid-accounting/domain/report"
	"grid-accounting/domain/usage"
)

// Run executes the preview subcommand: the same pipeline as report but with
// no anonymization and no destination writes. Rows are printed to stdout so
// an operator can inspect what a submission would contain, raw identities
// included.
func Run(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
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

	slog.Info("preview.start", "year", *year, "month", *month)

	runner := &report.Runner{
		Source:       src,
		Tiers:        tiers,
		ScaleFactors: factors,
		YearMin:      cfg.Report.YearMin,
		YearMax:      cfg.Report.YearMax,
		Now:          time.Now,
		Out:          os.Stdout,
	}

	rows, err := runner.Preview(context.Background(), *year, *month)
	if err != nil {
		return err
	}
	if err := ccsv.WriteReportRows(filepath.Join("data", "report_rows.csv"), rows); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "preview.done rows=%d\n", len(rows))
	return nil
}
