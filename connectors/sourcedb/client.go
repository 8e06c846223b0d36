package sourcedb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"grid-accounting/domain/usage"
)

// Package sourcedb reads monthly usage summary rows from the local accounting
// database. The schema is owned by the accounting collector; this client only
// issues the date-range select the report needs.

const defaultTable = "usage_summaries"

type Client struct {
	db    *sql.DB
	table string
}

// Open connects to the source database. driver is a database/sql driver name
// (sqlite3 for the local summary store); table may be empty to use the
// default.
func Open(driver, dsn, table string) (*Client, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open source database: %w", err)
	}
	if table == "" {
		table = defaultTable
	}
	return &Client{db: db, table: table}, nil
}

func (c *Client) Close() error { return c.db.Close() }

// FetchUsage returns all usage rows recorded within [start, end] inclusive.
func (c *Client) FetchUsage(ctx context.Context, start, end time.Time) ([]usage.Record, error) {
	query := fmt.Sprintf(`SELECT host, vo_name, user_identity, vo_group, vo_role,
		n_jobs, cpu_seconds, wall_seconds, norm_cpu_seconds, norm_wall_seconds,
		year, month
		FROM %s WHERE record_date >= ? AND record_date <= ?
		ORDER BY record_date`, c.table)
	rows, err := c.db.QueryContext(ctx, query,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usage.Record
	for rows.Next() {
		var r usage.Record
		var normCPU, normWall sql.NullFloat64
		if err := rows.Scan(
			&r.Host, &r.VO, &r.UserIdentity, &r.Group, &r.Role,
			&r.Jobs, &r.CPUSeconds, &r.WallSeconds, &normCPU, &normWall,
			&r.Year, &r.Month,
		); err != nil {
			return nil, err
		}
		if normCPU.Valid {
			r.NormCPUSeconds = decimal.NullDecimal{Decimal: decimal.NewFromFloat(normCPU.Float64), Valid: true}
		}
		if normWall.Valid {
			r.NormWallSeconds = decimal.NullDecimal{Decimal: decimal.NewFromFloat(normWall.Float64), Valid: true}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
