package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid-accounting/domain/usage"
)

type fakeSource struct {
	rowsByMonth map[int][]usage.Record
	errByMonth  map[int]error
	fetched     []time.Time
}

func (f *fakeSource) FetchUsage(_ context.Context, start, _ time.Time) ([]usage.Record, error) {
	f.fetched = append(f.fetched, start)
	month := int(start.Month())
	if err := f.errByMonth[month]; err != nil {
		return nil, err
	}
	return f.rowsByMonth[month], nil
}

type fakeDest struct {
	batches [][]string
	err     error
}

func (f *fakeDest) Execute(_ context.Context, stmts []string) error {
	f.batches = append(f.batches, stmts)
	return f.err
}

type prefixAnonymizer struct{}

func (prefixAnonymizer) Anonymize(_ context.Context, identity string) (string, error) {
	return "tok-" + identity, nil
}

func rec(host, vo, user string, jobs, cpu, wall int64, year, month int) usage.Record {
	return usage.Record{
		Host: host, VO: vo, UserIdentity: user,
		Jobs: jobs, CPUSeconds: cpu, WallSeconds: wall,
		Year: year, Month: month,
	}
}

func newRunner(src Source, dst Destination) *Runner {
	tiers, err := usage.NewTierMap("T2", map[string]string{"H": "X"}, nil)
	if err != nil {
		panic(err)
	}
	return &Runner{
		Source:       src,
		Dest:         dst,
		Anon:         prefixAnonymizer{},
		Tiers:        tiers,
		ScaleFactors: map[string]decimal.Decimal{"H": decimal.RequireFromString("1.5")},
		Table:        "tier_usage",
		OverlapDays:  3,
		YearMin:      2004,
		YearMax:      2030,
		Now:          func() time.Time { return time.Date(2012, time.April, 2, 9, 0, 0, 0, time.UTC) },
		Out:          &bytes.Buffer{},
	}
}

func TestSubmit_OverlapWindowReportsPreviousPeriodFirst(t *testing.T) {
	src := &fakeSource{rowsByMonth: map[int][]usage.Record{
		3: {rec("H", "atlas", "U1", 5, 500, 1000, 2012, 3), rec("H", "atlas", "U1", 3, 300, 600, 2012, 3)},
		4: {rec("H", "atlas", "U1", 2, 200, 400, 2012, 4)},
	}}
	dst := &fakeDest{}
	r := newRunner(src, dst)

	// Run date is day 2 with an overlap threshold of 3: both periods go out.
	rows, err := r.Submit(context.Background(), 2012, 4)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Len(t, dst.batches, 1)
	stmts := dst.batches[0]
	require.Len(t, stmts, 4) // delete+insert for March, delete+insert for April
	assert.Equal(t, "DELETE FROM tier_usage WHERE year = 2012 AND month = 3", stmts[0])
	assert.Contains(t, stmts[1], "INSERT INTO tier_usage")
	assert.Equal(t, "DELETE FROM tier_usage WHERE year = 2012 AND month = 4", stmts[2])

	// The two March batches collapsed into one row: 8 jobs, 1600 wall seconds.
	assert.Contains(t, stmts[1], ", 8, 800, 1600,")
	// Identities were anonymized before formatting.
	assert.Contains(t, stmts[1], "'tok-U1'")
}

func TestSubmit_OutsideOverlapWindowReportsSinglePeriod(t *testing.T) {
	src := &fakeSource{rowsByMonth: map[int][]usage.Record{
		4: {rec("H", "atlas", "U1", 2, 200, 400, 2012, 4)},
	}}
	dst := &fakeDest{}
	r := newRunner(src, dst)
	r.Now = func() time.Time { return time.Date(2012, time.April, 20, 9, 0, 0, 0, time.UTC) }

	_, err := r.Submit(context.Background(), 2012, 4)
	require.NoError(t, err)
	require.Len(t, src.fetched, 1)
	assert.Equal(t, time.April, src.fetched[0].Month())
}

func TestSubmit_PreviousFetchFailureStillSubmitsCurrent(t *testing.T) {
	src := &fakeSource{
		rowsByMonth: map[int][]usage.Record{4: {rec("H", "atlas", "U1", 2, 200, 400, 2012, 4)}},
		errByMonth:  map[int]error{3: fmt.Errorf("connection refused")},
	}
	dst := &fakeDest{}
	r := newRunner(src, dst)

	rows, err := r.Submit(context.Background(), 2012, 4)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2012, rows[0].Key.Year)
	assert.Equal(t, 4, rows[0].Key.Month)

	require.Len(t, dst.batches, 1)
	for _, s := range dst.batches[0] {
		assert.NotContains(t, s, "month = 3")
	}
}

func TestSubmit_CurrentFetchFailureIsFatal(t *testing.T) {
	src := &fakeSource{errByMonth: map[int]error{3: errors.New("down"), 4: errors.New("down")}}
	dst := &fakeDest{}
	r := newRunner(src, dst)

	_, err := r.Submit(context.Background(), 2012, 4)
	assert.True(t, errors.Is(err, usage.ErrSourceFetch))
	assert.Empty(t, dst.batches)
}

func TestSubmit_YearOutsidePlausibleRangeIsRejected(t *testing.T) {
	src := &fakeSource{}
	r := newRunner(src, &fakeDest{})

	_, err := r.Submit(context.Background(), 1999, 4)
	assert.True(t, errors.Is(err, usage.ErrInvalidPeriod))
	assert.Empty(t, src.fetched, "no fetch may happen after a failed guard")
}

func TestSubmit_DestinationFailureIsReported(t *testing.T) {
	src := &fakeSource{rowsByMonth: map[int][]usage.Record{
		3: {rec("H", "atlas", "U1", 1, 1, 1, 2012, 3)},
		4: {rec("H", "atlas", "U1", 1, 1, 1, 2012, 4)},
	}}
	dst := &fakeDest{err: errors.New("constraint violation")}
	r := newRunner(src, dst)

	_, err := r.Submit(context.Background(), 2012, 4)
	assert.True(t, errors.Is(err, usage.ErrDestinationWrite))
}

func TestSubmit_AnonymizationFailureIsFatal(t *testing.T) {
	src := &fakeSource{rowsByMonth: map[int][]usage.Record{
		4: {rec("H", "atlas", "U1", 1, 1, 1, 2012, 4)},
	}}
	dst := &fakeDest{}
	r := newRunner(src, dst)
	r.Now = func() time.Time { return time.Date(2012, time.April, 20, 9, 0, 0, 0, time.UTC) }
	r.Anon = failingAnonymizer{}

	_, err := r.Submit(context.Background(), 2012, 4)
	assert.True(t, errors.Is(err, usage.ErrAnonymization))
	assert.Empty(t, dst.batches)
}

type failingAnonymizer struct{}

func (failingAnonymizer) Anonymize(context.Context, string) (string, error) {
	return "", errors.New("exit status 1")
}

func TestPreview_PrintsRawIdentitiesAndWritesNothing(t *testing.T) {
	src := &fakeSource{rowsByMonth: map[int][]usage.Record{
		4: {rec("H", "atlas", "/DC=org/CN=User One", 2, 200, 400, 2012, 4)},
	}}
	dst := &fakeDest{}
	r := newRunner(src, dst)
	var out bytes.Buffer
	r.Out = &out

	rows, err := r.Preview(context.Background(), 2012, 4)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Empty(t, dst.batches, "preview never touches the destination")
	assert.Contains(t, out.String(), "'/DC=org/CN=User One'", "identities stay raw for inspection")
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}

func TestPreview_AppliesScaleFactors(t *testing.T) {
	src := &fakeSource{rowsByMonth: map[int][]usage.Record{
		4: {rec("H", "atlas", "U1", 2, 1000, 400, 2012, 4)},
	}}
	r := newRunner(src, &fakeDest{})
	var out bytes.Buffer
	r.Out = &out

	_, err := r.Preview(context.Background(), 2012, 4)
	require.NoError(t, err)
	// 1000 cpu seconds at factor 1.5 -> 1500 normalized.
	assert.Contains(t, out.String(), "1500")
}
