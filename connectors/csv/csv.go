package csv

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"grid-accounting/domain/usage"
)

// WriteReportRows writes the formatted report rows to a CSV artifact under
// the data directory, one file per run. The web command serves this file.
func WriteReportRows(path string, rows []usage.ReportRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write(usage.ReportColumns); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Key.Tier,
			r.Key.VO,
			r.Key.UserIdentity,
			nullable(r.Key.Group.String, r.Key.Group.Valid),
			nullable(r.Key.Role.String, r.Key.Role.Valid),
			strconv.Itoa(r.Key.Year),
			strconv.Itoa(r.Key.Month),
			r.Key.Host,
			r.Jobs.Round(0).String(),
			r.CPUSeconds.Round(0).String(),
			r.WallSeconds.Round(0).String(),
			nullableDecimal(r.NormCPUSeconds),
			nullableDecimal(r.NormWallSeconds),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Error()
}

func nullable(s string, valid bool) string {
	if !valid {
		return ""
	}
	return s
}

func nullableDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.Round(0).String()
}
