package usage

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func splitMap(host string, splits ...Split) map[string][]Split {
	return map[string][]Split{host: splits}
}

func TestNewTierMap_RejectsRatiosNotSummingToOne(t *testing.T) {
	_, err := NewTierMap("T2", nil, splitMap("shared.org",
		Split{Tier: "A", Ratio: d("0.6")},
		Split{Tier: "B", Ratio: d("0.3")},
	))
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestNewTierMap_RejectsNonPositiveRatio(t *testing.T) {
	_, err := NewTierMap("T2", nil, splitMap("shared.org",
		Split{Tier: "A", Ratio: d("1.2")},
		Split{Tier: "B", Ratio: d("-0.2")},
	))
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestNewTierMap_RejectsEmptyDefaultTier(t *testing.T) {
	_, err := NewTierMap("", nil, nil)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestAttribute_SplitConservesEveryField(t *testing.T) {
	m, err := NewTierMap("T2", nil, splitMap("shared.org",
		Split{Tier: "A", Ratio: d("0.7")},
		Split{Tier: "B", Ratio: d("0.3")},
	))
	require.NoError(t, err)

	rec := Record{
		Host: "shared.org", VO: "atlas", UserIdentity: "U1",
		Jobs: 10, CPUSeconds: 3600, WallSeconds: 7200,
		NormCPUSeconds: decimal.NullDecimal{Decimal: d("5400"), Valid: true},
		Year:           2012, Month: 3,
	}
	out := m.Attribute(rec)
	require.Len(t, out, 2)

	assert.Equal(t, "A", out[0].Tier)
	assert.Equal(t, "B", out[1].Tier)
	assert.True(t, out[0].Jobs.Equal(d("7")))
	assert.True(t, out[1].Jobs.Equal(d("3")))

	sumJobs := out[0].Jobs.Add(out[1].Jobs)
	sumCPU := out[0].CPUSeconds.Add(out[1].CPUSeconds)
	sumWall := out[0].WallSeconds.Add(out[1].WallSeconds)
	sumNorm := out[0].NormCPUSeconds.Decimal.Add(out[1].NormCPUSeconds.Decimal)
	assert.True(t, sumJobs.Equal(d("10")))
	assert.True(t, sumCPU.Equal(d("3600")))
	assert.True(t, sumWall.Equal(d("7200")))
	assert.True(t, sumNorm.Equal(d("5400")))
}

func TestAttribute_SplitConservesAwkwardRatios(t *testing.T) {
	m, err := NewTierMap("T2", nil, splitMap("shared.org",
		Split{Tier: "A", Ratio: d("0.333")},
		Split{Tier: "B", Ratio: d("0.333")},
		Split{Tier: "C", Ratio: d("0.334")},
	))
	require.NoError(t, err)

	rec := Record{Host: "shared.org", Jobs: 7, CPUSeconds: 1001, WallSeconds: 999}
	out := m.Attribute(rec)
	require.Len(t, out, 3)

	sum := decimal.Zero
	for _, r := range out {
		sum = sum.Add(r.CPUSeconds)
	}
	assert.True(t, sum.Equal(d("1001")), "got %s", sum)
}

func TestAttribute_MappedHostSingleTier(t *testing.T) {
	m, err := NewTierMap("T2", map[string]string{"ce.site-a.org": "T1"}, nil)
	require.NoError(t, err)

	out := m.Attribute(Record{Host: "ce.site-a.org", Jobs: 5})
	require.Len(t, out, 1)
	assert.Equal(t, "T1", out[0].Tier)
	assert.True(t, out[0].Fraction.Equal(d("1")))
	assert.True(t, out[0].Jobs.Equal(d("5")))
}

func TestAttribute_UnmappedHostGetsDefaultTier(t *testing.T) {
	m, err := NewTierMap("T2", map[string]string{"ce.site-a.org": "T1"}, nil)
	require.NoError(t, err)

	out := m.Attribute(Record{Host: "nowhere.org", Jobs: 4})
	require.Len(t, out, 1)
	assert.Equal(t, "T2", out[0].Tier)
	assert.True(t, out[0].Jobs.Equal(d("4")))
}

func TestAttribute_AbsentNormalizedStaysAbsentAfterSplit(t *testing.T) {
	m, err := NewTierMap("T2", nil, splitMap("shared.org",
		Split{Tier: "A", Ratio: d("0.5")},
		Split{Tier: "B", Ratio: d("0.5")},
	))
	require.NoError(t, err)

	out := m.Attribute(Record{Host: "shared.org", Jobs: 2})
	require.Len(t, out, 2)
	assert.False(t, out[0].NormCPUSeconds.Valid)
	assert.False(t, out[1].NormWallSeconds.Valid)
}
