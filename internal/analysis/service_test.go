package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfscope/internal/attribution"
	"github.com/wonny/etfscope/internal/contracts"
)

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func nav(v float64) *float64 { return &v }

type fakePrices struct {
	mu     sync.Mutex
	series map[string]contracts.PriceSeries
	errs   map[string]error
	calls  []string
}

func (f *fakePrices) FetchPriceHistory(_ context.Context, id string, start, end time.Time) (contracts.PriceSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	return f.series[id].Between(start, end), nil
}

type fakeHoldings struct {
	byDate map[time.Time]contracts.HoldingsTable
	err    error
	asked  []time.Time
}

func (f *fakeHoldings) FetchHoldings(_ context.Context, _ string, asOf time.Time) (contracts.HoldingsTable, error) {
	f.asked = append(f.asked, asOf)
	if f.err != nil {
		return nil, f.err
	}
	return f.byDate[asOf], nil
}

type fakeNames map[string]string

func (f fakeNames) FetchDisplayName(_ context.Context, id string) (string, error) {
	if n, ok := f[id]; ok {
		return n, nil
	}
	return "", errors.New("unknown")
}

func fixture() (Sources, *fakePrices, *fakePrices, *fakeHoldings) {
	etf := &fakePrices{series: map[string]contracts.PriceSeries{
		"069500": {
			{Date: day(2), Close: 100, NAV: nav(100)},
			{Date: day(3), Close: 105, NAV: nav(105.5)},
			{Date: day(4), Close: 110, NAV: nav(111)},
		},
		"1001": {
			{Date: day(2), Close: 1000},
			{Date: day(3), Close: 1020},
			{Date: day(4), Close: 1050},
		},
	}}
	constituents := &fakePrices{
		series: map[string]contracts.PriceSeries{
			"005930": {{Date: day(2), Close: 10}, {Date: day(4), Close: 12}},
		},
		errs: map[string]error{"000660": errors.New("timeout")},
	}
	holdings := &fakeHoldings{byDate: map[time.Time]contracts.HoldingsTable{
		day(4): {
			{Symbol: "000660", Name: "SK하이닉스", WeightPct: 40},
			{Symbol: "005930", Name: "삼성전자", WeightPct: 60},
		},
	}}
	src := Sources{ETFPrices: etf, Benchmark: etf, Holdings: holdings, Constituents: constituents}
	return src, etf, constituents, holdings
}

func request() Request {
	return Request{ETF: "069500 | KODEX 200", Period: contracts.DateRange{Start: day(2), End: day(4)}}
}

func newService(t *testing.T, src Sources) *Service {
	t.Helper()
	svc, err := NewService(Config{Benchmark: "1001", Attribution: attribution.Config{TopN: 50}}, src, nil, nil)
	require.NoError(t, err)
	return svc
}

func TestRun_FullReport(t *testing.T) {
	src, _, _, holdings := fixture()
	report, err := newService(t, src).Run(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, contracts.Instrument{Code: "069500", Name: "KODEX 200"}, report.ETF)
	assert.Equal(t, BasisNAV, report.ReturnBasis)
	assert.InDelta(t, 11.0, report.TotalReturn, 1e-9, "NAV total return")
	assert.Equal(t, 100.0, report.StartPrice)
	assert.Equal(t, 110.0, report.EndPrice)

	require.True(t, report.BenchmarkReturn.Valid)
	assert.InDelta(t, 5.0, report.BenchmarkReturn.Value, 1e-9)
	assert.InDelta(t, 6.0, report.Metrics.ExcessReturn.Value, 1e-9)
	assert.True(t, report.Metrics.Sharpe.Valid)
	assert.True(t, report.Metrics.Beta.Valid)

	// 시작일 PDF 가 비어 있으면 종료일 PDF
	assert.Equal(t, []time.Time{day(2), day(4)}, holdings.asked)
	assert.Equal(t, "2024-01-04", report.HoldingsAsOf)

	require.Len(t, report.Holdings, 2)
	assert.Equal(t, "005930", report.Holdings[0].Symbol, "weight-desc order")
	assert.InDelta(t, 20.0, report.Holdings[0].Return, 1e-9)
	assert.InDelta(t, 12.0, report.Holdings[0].Contribution, 1e-9)
	assert.Zero(t, report.Holdings[1].Contribution, "failed constituent is a zero row")
	assert.Equal(t, 1, report.Summary.Resolved)
	assert.Empty(t, report.Warnings)
}

func TestRun_CloseBasisWithoutNAV(t *testing.T) {
	src, etf, _, _ := fixture()
	for i := range etf.series["069500"] {
		etf.series["069500"][i].NAV = nil
	}

	report, err := newService(t, src).Run(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, BasisClose, report.ReturnBasis)
	assert.InDelta(t, 10.0, report.TotalReturn, 1e-9)
}

func TestRun_BenchmarkFailureIsNA(t *testing.T) {
	src, _, _, _ := fixture()
	src.Benchmark = &fakePrices{errs: map[string]error{"1001": errors.New("portal down")}}

	report, err := newService(t, src).Run(context.Background(), request())
	require.NoError(t, err)

	assert.False(t, report.BenchmarkReturn.Valid)
	assert.Equal(t, contracts.UnavailableMetrics(), report.Metrics)
	assert.NotEmpty(t, report.Warnings)
	assert.InDelta(t, 11.0, report.TotalReturn, 1e-9)
}

func TestRun_PrimaryFailures(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		src, _, _, _ := fixture()
		req := request()
		req.ETF = "999999"
		_, err := newService(t, src).Run(context.Background(), req)
		assert.ErrorIs(t, err, contracts.ErrNoData)
	})

	t.Run("transport error", func(t *testing.T) {
		src, etf, _, _ := fixture()
		etf.errs = map[string]error{"069500": errors.New("503")}
		_, err := newService(t, src).Run(context.Background(), request())
		require.Error(t, err)
		assert.NotErrorIs(t, err, contracts.ErrNoData)
	})

	t.Run("reversed range", func(t *testing.T) {
		src, _, _, _ := fixture()
		req := request()
		req.Period = contracts.DateRange{Start: day(4), End: day(2)}
		_, err := newService(t, src).Run(context.Background(), req)
		assert.ErrorIs(t, err, contracts.ErrInvalidRange)
	})
}

func TestRun_HoldingsUnavailable(t *testing.T) {
	src, _, constituents, holdings := fixture()
	holdings.err = errors.New("pdf screen changed")

	report, err := newService(t, src).Run(context.Background(), request())
	require.NoError(t, err)
	assert.Empty(t, report.Holdings)
	assert.Contains(t, report.Warnings, "holdings unavailable")
	assert.Empty(t, constituents.calls)
}

func TestRun_NamesAndSpacing(t *testing.T) {
	src, _, _, _ := fixture()
	src.Names = fakeNames{"069500": "KODEX 200", "005930": "Samsung Electronics"}

	svc, err := NewService(Config{
		Benchmark:    "1001",
		FetchSpacing: 20 * time.Millisecond,
	}, src, nil, nil)
	require.NoError(t, err)

	req := request()
	req.ETF = "069500"
	started := time.Now()
	report, err := svc.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "KODEX 200", report.ETF.Name)
	assert.Equal(t, "Samsung Electronics", report.Holdings[0].Name)
	assert.Equal(t, "SK하이닉스", report.Holdings[1].Name, "lookup failure keeps the source name")
	// 두 번째 조회는 최소 간격 이후
	assert.GreaterOrEqual(t, time.Since(started), 20*time.Millisecond)
}

func TestNewService_RequiresSources(t *testing.T) {
	_, err := NewService(Config{}, Sources{}, nil, nil)
	assert.Error(t, err)
}
