package usage

import (
	"database/sql"
	"sort"
	"strconv"
	"strings"

	lo "github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// OrderKey is the typed sort key for report rows. Rows sort ascending by
// (tier, VO, user identity, group, role); an absent group or role sorts
// before any present value.
type OrderKey struct {
	Tier         string
	VO           string
	UserIdentity string
	Group        sql.NullString
	Role         sql.NullString
}

func (k OrderKey) Less(o OrderKey) bool {
	if k.Tier != o.Tier {
		return k.Tier < o.Tier
	}
	if k.VO != o.VO {
		return k.VO < o.VO
	}
	if k.UserIdentity != o.UserIdentity {
		return k.UserIdentity < o.UserIdentity
	}
	if c := compareNullString(k.Group, o.Group); c != 0 {
		return c < 0
	}
	return compareNullString(k.Role, o.Role) < 0
}

func compareNullString(a, b sql.NullString) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	}
	return strings.Compare(a.String, b.String)
}

// OrderKey returns the sort key of the row.
func (r ReportRow) OrderKey() OrderKey {
	return OrderKey{
		Tier:         r.Key.Tier,
		VO:           r.Key.VO,
		UserIdentity: r.Key.UserIdentity,
		Group:        r.Key.Group,
		Role:         r.Key.Role,
	}
}

// FormatRows turns aggregates into report rows in deterministic order. The
// same ordering drives both the interactive listing and the insert statement
// sequence.
func FormatRows(aggs []Aggregate) []ReportRow {
	rows := lo.Map(aggs, func(a Aggregate, _ int) ReportRow {
		return ReportRow{
			Key:             a.Key,
			Jobs:            a.Jobs,
			CPUSeconds:      a.CPUSeconds,
			WallSeconds:     a.WallSeconds,
			NormCPUSeconds:  a.NormCPUSeconds,
			NormWallSeconds: a.NormWallSeconds,
		}
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].OrderKey().Less(rows[j].OrderKey()) })
	return rows
}

// Values renders the row as the SQL values tuple shared by the insert
// statements and the interactive listing: strings single-quoted and escaped,
// counters rounded to integers, absent normalized sums as NULL.
func (r ReportRow) Values() string {
	fields := []string{
		quote(r.Key.Tier),
		quote(r.Key.VO),
		quote(r.Key.UserIdentity),
		quoteNull(r.Key.Group),
		quoteNull(r.Key.Role),
		strconv.Itoa(r.Key.Year),
		strconv.Itoa(r.Key.Month),
		quote(r.Key.Host),
		renderInt(r.Jobs),
		renderInt(r.CPUSeconds),
		renderInt(r.WallSeconds),
		renderNullInt(r.NormCPUSeconds),
		renderNullInt(r.NormWallSeconds),
	}
	return "(" + strings.Join(fields, ", ") + ")"
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteNull(s sql.NullString) string {
	if !s.Valid {
		return "NULL"
	}
	return quote(s.String)
}

func renderInt(d decimal.Decimal) string {
	return d.Round(0).String()
}

func renderNullInt(d decimal.NullDecimal) string {
	if !d.Valid {
		return "NULL"
	}
	return renderInt(d.Decimal)
}
