package usage

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Package usage models grid usage accounting rows and the transformations
// that turn them into the tier-attributed report accepted by the central
// accounting service: scale-value normalization, tier attribution, collapsing
// into per-key aggregates, anonymization, ordering and statement generation.

// Record is one raw usage summary row from the source database: the totals
// for one (host, VO, user, group, role) job batch within a month.
type Record struct {
	Host         string
	VO           string
	UserIdentity string
	Group        sql.NullString
	Role         sql.NullString
	Jobs         int64
	CPUSeconds   int64
	WallSeconds  int64
	// Benchmark-normalized times, absent when the source has not scaled them.
	NormCPUSeconds  decimal.NullDecimal
	NormWallSeconds decimal.NullDecimal
	Year            int
	Month           int
}

// TierRecord is a Record attributed to a single tier. Every numeric field has
// been multiplied by Fraction; the fractions of all TierRecords derived from
// one Record sum to exactly 1, so totals are conserved across a split.
type TierRecord struct {
	Tier         string
	Fraction     decimal.Decimal
	Host         string
	VO           string
	UserIdentity string
	Group        sql.NullString
	Role         sql.NullString
	Jobs         decimal.Decimal
	CPUSeconds   decimal.Decimal
	WallSeconds  decimal.Decimal
	NormCPUSeconds  decimal.NullDecimal
	NormWallSeconds decimal.NullDecimal
	Year         int
	Month        int
}

// Key identifies one output row of the report. Exactly one Aggregate exists
// per distinct Key within a run.
type Key struct {
	Tier         string
	VO           string
	UserIdentity string
	Group        sql.NullString
	Role         sql.NullString
	Year         int
	Month        int
	Host         string
}

// Aggregate holds the summed totals of every TierRecord sharing a Key.
// The normalized sums stay absent only when every constituent lacked them.
type Aggregate struct {
	Key             Key
	Jobs            decimal.Decimal
	CPUSeconds      decimal.Decimal
	WallSeconds     decimal.Decimal
	NormCPUSeconds  decimal.NullDecimal
	NormWallSeconds decimal.NullDecimal
}

// ReportRow is an Aggregate after optional anonymization, ready for ordering
// and rendering.
type ReportRow struct {
	Key             Key
	Jobs            decimal.Decimal
	CPUSeconds      decimal.Decimal
	WallSeconds     decimal.Decimal
	NormCPUSeconds  decimal.NullDecimal
	NormWallSeconds decimal.NullDecimal
}
