package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"grid-accounting/domain/usage"
)

// Source fetches raw usage rows for an inclusive date range.
type Source interface {
	FetchUsage(ctx context.Context, start, end time.Time) ([]usage.Record, error)
}

// Destination executes a statement batch in a single transaction: commit on
// success, rollback on any statement error.
type Destination interface {
	Execute(ctx context.Context, stmts []string) error
}

// Runner sequences the report pipeline for one invocation. All collaborators
// and configuration are injected; there is no ambient state.
type Runner struct {
	Source Source
	Dest   Destination
	Anon   usage.Anonymizer

	Tiers        *usage.TierMap
	ScaleFactors map[string]decimal.Decimal
	Table        string

	// OverlapDays is how many days into a new month the previous month is
	// still re-reported, to catch accounting data arriving after the month
	// boundary. Replace semantics make the re-report safe.
	OverlapDays int

	// Plausible year bounds, guarding against clock or configuration errors
	// rewriting historical periods by accident.
	YearMin, YearMax int

	Now func() time.Time
	Out io.Writer
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) checkYear(year int) error {
	if year < r.YearMin || year > r.YearMax {
		return fmt.Errorf("%w: year %d outside plausible range %d..%d", usage.ErrInvalidPeriod, year, r.YearMin, r.YearMax)
	}
	return nil
}

// rowsForPeriod runs the full transformation for one (year, month) window.
// Each call is independent: nothing is shared between periods.
func (r *Runner) rowsForPeriod(ctx context.Context, year, month int, anonymize bool) ([]usage.ReportRow, error) {
	start, end, err := usage.MonthWindow(year, month, r.now())
	if err != nil {
		return nil, err
	}
	recs, err := r.Source.FetchUsage(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: period %d-%02d: %v", usage.ErrSourceFetch, year, month, err)
	}
	slog.Info("phase.fetch.done", "year", year, "month", month, "rows", len(recs))
	recs = usage.NormalizeScaleValues(recs, r.ScaleFactors)
	aggs := usage.Collapse(r.Tiers.AttributeAll(recs))
	if anonymize {
		if aggs, err = usage.AnonymizeAggregates(ctx, r.Anon, aggs); err != nil {
			return nil, err
		}
	}
	return usage.FormatRows(aggs), nil
}

// Preview runs the pipeline for one period without anonymization and without
// destination writes, printing one rendered row per line. Raw identities stay
// visible on purpose: nothing leaves the operator's terminal.
func (r *Runner) Preview(ctx context.Context, year, month int) ([]usage.ReportRow, error) {
	if err := r.checkYear(year); err != nil {
		return nil, err
	}
	rows, err := r.rowsForPeriod(ctx, year, month, false)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		fmt.Fprintln(r.Out, row.Values())
	}
	return rows, nil
}

// Submit runs the pipeline in submission mode. When the run date falls within
// the overlap window, the previous period is re-reported first with its own
// independent pipeline; a source fetch failure there is logged and skipped so
// the current period still goes out. The combined batch executes in one
// transaction.
func (r *Runner) Submit(ctx context.Context, year, month int) ([]usage.ReportRow, error) {
	if err := r.checkYear(year); err != nil {
		return nil, err
	}
	var stmts []string
	var all []usage.ReportRow

	if r.now().Day() <= r.OverlapDays {
		py, pm := usage.PreviousPeriod(year, month)
		slog.Info("report.overlap.start", "year", py, "month", pm)
		rows, err := r.rowsForPeriod(ctx, py, pm, true)
		switch {
		case errors.Is(err, usage.ErrSourceFetch):
			slog.Error("report.overlap.fetch.error", "year", py, "month", pm, "error", err)
		case err != nil:
			return nil, err
		default:
			stmts = append(stmts, usage.BuildStatements(r.Table, py, pm, rows)...)
			all = append(all, rows...)
		}
	}

	rows, err := r.rowsForPeriod(ctx, year, month, true)
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, usage.BuildStatements(r.Table, year, month, rows)...)
	all = append(all, rows...)

	if err := r.Dest.Execute(ctx, stmts); err != nil {
		return nil, fmt.Errorf("%w: %v", usage.ErrDestinationWrite, err)
	}
	slog.Info("report.submitted", "statements", len(stmts), "rows", len(all))
	return all, nil
}
