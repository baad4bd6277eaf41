package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/external/krx"
)

type fakeSource struct {
	series contracts.PriceSeries
	err    error
}

func (f fakeSource) FetchPriceHistory(context.Context, string, time.Time, time.Time) (contracts.PriceSeries, error) {
	return f.series, f.err
}

type fakeBonds struct {
	yields []krx.BondYield
	err    error
}

func (f fakeBonds) LatestBondYields(context.Context, time.Time, int) ([]krx.BondYield, error) {
	return f.yields, f.err
}

func day(n int) time.Time {
	return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC)
}

func TestSnapshot(t *testing.T) {
	d := NewDashboard([]Series{
		{Name: NameKOSPI, Symbol: "1001", Source: fakeSource{series: contracts.PriceSeries{
			{Date: day(27), Close: 2755.11}, {Date: day(28), Close: 2745.82},
		}}},
		{Name: NameKOSDAQ, Symbol: "2001", Source: fakeSource{series: contracts.PriceSeries{
			{Date: day(28), Close: 905.5},
		}}},
		{Name: NameUSDKRW, Symbol: "KRW=X", Source: fakeSource{}},
	}, fakeBonds{yields: []krx.BondYield{
		{Name: krx.BondGov3Y, Yield: 3.285, Change: -0.012},
	}}, nil)
	d.now = func() time.Time { return day(30) }

	snap := d.Snapshot(context.Background())
	assert.Equal(t, "2024-03-28", snap.RefDate, "KOSPI last trading date")
	require.Len(t, snap.Quotes, 5)

	kospi, _ := snap.Quote(NameKOSPI)
	assert.Equal(t, StatusOK, kospi.Status)
	assert.InDelta(t, 2745.82, kospi.Value.Value, 1e-9)
	assert.InDelta(t, -9.29, kospi.Delta, 1e-9)
	assert.Equal(t, "2745.82 (-9.29)", kospi.String())

	kosdaq, _ := snap.Quote(NameKOSDAQ)
	assert.Zero(t, kosdaq.Delta, "single close has no change")

	fx, _ := snap.Quote(NameUSDKRW)
	assert.Equal(t, StatusNA, fx.Status)
	assert.Equal(t, "N/A", fx.String())

	gov, _ := snap.Quote(NameGovBond)
	assert.InDelta(t, 3.285, gov.Value.Value, 1e-12)
	corp, _ := snap.Quote(NameCorpBond)
	assert.Equal(t, StatusNA, corp.Status)
}

func TestSnapshot_Failures(t *testing.T) {
	d := NewDashboard([]Series{
		{Name: NameKOSPI, Symbol: "1001", Source: fakeSource{err: errors.New("portal down")}},
	}, fakeBonds{err: errors.New("timeout")}, nil)
	d.now = func() time.Time { return day(30) }

	snap := d.Snapshot(context.Background())
	assert.Equal(t, "2024-03-30", snap.RefDate, "falls back to today")

	kospi, _ := snap.Quote(NameKOSPI)
	assert.Equal(t, StatusError, kospi.Status)
	assert.Equal(t, "Error", kospi.String())
	assert.False(t, kospi.Value.Valid)

	gov, ok := snap.Quote(NameGovBond)
	require.True(t, ok)
	assert.Equal(t, StatusError, gov.Status)
}
