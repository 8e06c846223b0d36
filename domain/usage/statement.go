package usage

import (
	"fmt"
	"strings"
)

// Columns of the destination report table, in insert order. The order must
// match ReportRow.Values.
var ReportColumns = []string{
	"tier", "vo_name", "user_identity", "vo_group", "vo_role",
	"year", "month", "host",
	"n_jobs", "cpu_seconds", "wall_seconds",
	"norm_cpu_seconds", "norm_wall_seconds",
}

// BuildStatements emits the idempotent replace batch for one period: a delete
// scoped to exactly (year, month) followed by one insert per row. Re-running
// a period replaces its rows instead of accumulating them.
func BuildStatements(table string, year, month int, rows []ReportRow) []string {
	stmts := make([]string, 0, len(rows)+1)
	stmts = append(stmts, fmt.Sprintf("DELETE FROM %s WHERE year = %d AND month = %d", table, year, month))
	cols := strings.Join(ReportColumns, ", ")
	for _, r := range rows {
		stmts = append(stmts, fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, cols, r.Values()))
	}
	return stmts
}
