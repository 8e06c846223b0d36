package usage

import "github.com/shopspring/decimal"

// NormalizeScaleValues fills in missing benchmark-normalized CPU and wall
// times using the per-host scale factors. Values already present are never
// overwritten; hosts without a known factor keep the field absent (absent, not
// zero, so aggregation can tell the two apart). The input slice is not
// modified.
func NormalizeScaleValues(recs []Record, factors map[string]decimal.Decimal) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		if f, ok := factors[r.Host]; ok {
			if !r.NormCPUSeconds.Valid {
				r.NormCPUSeconds = decimal.NullDecimal{Decimal: decimal.NewFromInt(r.CPUSeconds).Mul(f), Valid: true}
			}
			if !r.NormWallSeconds.Valid {
				r.NormWallSeconds = decimal.NullDecimal{Decimal: decimal.NewFromInt(r.WallSeconds).Mul(f), Valid: true}
			}
		}
		out[i] = r
	}
	return out
}
