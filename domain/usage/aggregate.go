package usage

import (
	lo "github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Collapse groups tier-attributed records by Key and sums their totals, so
// the destination receives one row per (tier, VO, user, group, role, period,
// host) instead of one per source batch. Summation is commutative, so input
// order does not matter. Output order is unspecified; ordering is applied at
// formatting time.
func Collapse(recs []TierRecord) []Aggregate {
	byKey := make(map[Key]*Aggregate, len(recs))
	for _, r := range recs {
		k := Key{
			Tier:         r.Tier,
			VO:           r.VO,
			UserIdentity: r.UserIdentity,
			Group:        r.Group,
			Role:         r.Role,
			Year:         r.Year,
			Month:        r.Month,
			Host:         r.Host,
		}
		a, ok := byKey[k]
		if !ok {
			a = &Aggregate{Key: k}
			byKey[k] = a
		}
		a.Jobs = a.Jobs.Add(r.Jobs)
		a.CPUSeconds = a.CPUSeconds.Add(r.CPUSeconds)
		a.WallSeconds = a.WallSeconds.Add(r.WallSeconds)
		a.NormCPUSeconds = addNull(a.NormCPUSeconds, r.NormCPUSeconds)
		a.NormWallSeconds = addNull(a.NormWallSeconds, r.NormWallSeconds)
	}
	return lo.Map(lo.Values(byKey), func(a *Aggregate, _ int) Aggregate { return *a })
}

// addNull sums optional normalized values: an absent operand contributes
// nothing, and the result is absent only when both sides are absent.
func addNull(a, b decimal.NullDecimal) decimal.NullDecimal {
	if !b.Valid {
		return a
	}
	if !a.Valid {
		return decimal.NullDecimal{Decimal: b.Decimal, Valid: true}
	}
	return decimal.NullDecimal{Decimal: a.Decimal.Add(b.Decimal), Valid: true}
}
