package usage

import (
	"fmt"

	lo "github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Split is one slice of a host whose contributions are attributed to more
// than one tier (for example a shared resource counted partly toward a
// national tier and partly toward the top-level tier).
type Split struct {
	Tier  string
	Ratio decimal.Decimal
}

// TierMap assigns every host to one or more tiers. Hosts without an explicit
// entry fall back to the default tier with ratio 1.
type TierMap struct {
	defaultTier string
	tiers       map[string]string
	splits      map[string][]Split
}

// NewTierMap validates the mapping and builds a TierMap. Each split group
// must sum to exactly 1 with every ratio strictly positive; anything else is
// a configuration error. Validation happens here, once, so attribution never
// has to re-check per record.
func NewTierMap(defaultTier string, tiers map[string]string, splits map[string][]Split) (*TierMap, error) {
	if defaultTier == "" {
		return nil, fmt.Errorf("%w: default tier is empty", ErrConfiguration)
	}
	one := decimal.NewFromInt(1)
	for host, group := range splits {
		if len(group) == 0 {
			return nil, fmt.Errorf("%w: empty split group for host %s", ErrConfiguration, host)
		}
		for _, s := range group {
			if s.Tier == "" {
				return nil, fmt.Errorf("%w: split for host %s has empty tier", ErrConfiguration, host)
			}
			if !s.Ratio.IsPositive() {
				return nil, fmt.Errorf("%w: split ratio %s for host %s tier %s is not positive", ErrConfiguration, s.Ratio, host, s.Tier)
			}
		}
		sum := lo.Reduce(group, func(acc decimal.Decimal, s Split, _ int) decimal.Decimal {
			return acc.Add(s.Ratio)
		}, decimal.Zero)
		if !sum.Equal(one) {
			return nil, fmt.Errorf("%w: split ratios for host %s sum to %s, want 1", ErrConfiguration, host, sum)
		}
	}
	return &TierMap{defaultTier: defaultTier, tiers: tiers, splits: splits}, nil
}

// Attribute maps one record onto its tiers. A split host yields one
// TierRecord per configured slice with every numeric field multiplied by the
// slice ratio; because the ratios sum to exactly 1 and the arithmetic is
// decimal, the outputs sum back to the original field values exactly.
func (m *TierMap) Attribute(r Record) []TierRecord {
	if group, ok := m.splits[r.Host]; ok {
		return lo.Map(group, func(s Split, _ int) TierRecord {
			return scaled(r, s.Tier, s.Ratio)
		})
	}
	tier, ok := m.tiers[r.Host]
	if !ok {
		tier = m.defaultTier
	}
	return []TierRecord{scaled(r, tier, decimal.NewFromInt(1))}
}

// AttributeAll attributes every record, preserving input order.
func (m *TierMap) AttributeAll(recs []Record) []TierRecord {
	out := make([]TierRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, m.Attribute(r)...)
	}
	return out
}

func scaled(r Record, tier string, ratio decimal.Decimal) TierRecord {
	return TierRecord{
		Tier:            tier,
		Fraction:        ratio,
		Host:            r.Host,
		VO:              r.VO,
		UserIdentity:    r.UserIdentity,
		Group:           r.Group,
		Role:            r.Role,
		Jobs:            decimal.NewFromInt(r.Jobs).Mul(ratio),
		CPUSeconds:      decimal.NewFromInt(r.CPUSeconds).Mul(ratio),
		WallSeconds:     decimal.NewFromInt(r.WallSeconds).Mul(ratio),
		NormCPUSeconds:  mulNull(r.NormCPUSeconds, ratio),
		NormWallSeconds: mulNull(r.NormWallSeconds, ratio),
		Year:            r.Year,
		Month:           r.Month,
	}
}

func mulNull(d decimal.NullDecimal, ratio decimal.Decimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NullDecimal{Decimal: d.Decimal.Mul(ratio), Valid: true}
}
