package attribution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/metrics"
)

var period = contracts.DateRange{
	Start: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC),
}

func closes(values ...float64) contracts.PriceSeries {
	s := make(contracts.PriceSeries, len(values))
	for i, v := range values {
		s[i] = contracts.PricePoint{Date: period.Start.AddDate(0, 0, i), Close: v}
	}
	return s
}

// fakeSource serves canned series and records calls
type fakeSource struct {
	mu     sync.Mutex
	series map[string]contracts.PriceSeries
	errs   map[string]error
	calls  []string
}

func (f *fakeSource) fetch(_ context.Context, symbol string, _, _ time.Time) (contracts.PriceSeries, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()

	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.series[symbol], nil
}

func TestAttribute_Scenario(t *testing.T) {
	src := &fakeSource{series: map[string]contracts.PriceSeries{
		"A": closes(50, 53),
		"B": closes(20, 20),
	}}
	holdings := contracts.HoldingsTable{
		{Symbol: "A", WeightPct: 60},
		{Symbol: "B", WeightPct: 40},
	}

	got, err := NewEngine(Config{}, nil, nil).Attribute(context.Background(), holdings, src.fetch, period)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.InDelta(t, 6.0, got[0].Return, 1e-12)
	assert.InDelta(t, 3.6, got[0].Contribution, 1e-12)
	assert.InDelta(t, 0.0, got[1].Return, 1e-12)
	assert.InDelta(t, 0.0, got[1].Contribution, 1e-12)
	assert.InDelta(t, 3.6, got.TotalContribution(), 1e-12)
}

func TestAttribute_SpecExample(t *testing.T) {
	// A 60% +5%, B 40% 0% → 3.0 / 0.0
	src := &fakeSource{series: map[string]contracts.PriceSeries{
		"A": closes(100, 105),
		"B": closes(10, 10),
	}}
	holdings := contracts.HoldingsTable{
		{Symbol: "A", WeightPct: 60},
		{Symbol: "B", WeightPct: 40},
	}

	got, err := NewEngine(Config{}, nil, nil).Attribute(context.Background(), holdings, src.fetch, period)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, got[0].Contribution, 1e-12)
	assert.InDelta(t, 0.0, got[1].Contribution, 1e-12)
}

func TestAttribute_FailuresBecomeZeroRows(t *testing.T) {
	src := &fakeSource{
		series: map[string]contracts.PriceSeries{
			"OK":      closes(100, 110),
			"EMPTY":   {},
			"BADBASE": closes(0, 10),
		},
		errs: map[string]error{"DOWN": errors.New("connection reset")},
	}
	holdings := contracts.HoldingsTable{
		{Symbol: "OK", WeightPct: 40},
		{Symbol: "EMPTY", WeightPct: 30},
		{Symbol: "DOWN", WeightPct: 20},
		{Symbol: "BADBASE", WeightPct: 10},
	}
	rec := metrics.New()

	got, err := NewEngine(Config{}, nil, rec).Attribute(context.Background(), holdings, src.fetch, period)
	require.NoError(t, err, "constituent failures never abort the batch")
	require.Len(t, got, 4)

	assert.True(t, got[0].Resolved)
	for _, h := range got[1:] {
		assert.Equal(t, 0.0, h.Return, h.Symbol)
		assert.Equal(t, 0.0, h.Contribution, h.Symbol)
		assert.True(t, h.Attributed, h.Symbol)
		assert.False(t, h.Resolved, h.Symbol)
	}
	assert.Len(t, src.calls, 4)
}

func TestAttribute_TopNOnly(t *testing.T) {
	src := &fakeSource{series: map[string]contracts.PriceSeries{}}
	holdings := make(contracts.HoldingsTable, 0, 60)
	for i := 0; i < 60; i++ {
		sym := fmt.Sprintf("S%02d", i)
		src.series[sym] = closes(100, 101)
		holdings = append(holdings, contracts.Holding{Symbol: sym, WeightPct: float64(60 - i)})
	}

	got, err := NewEngine(Config{TopN: 50}, nil, nil).Attribute(context.Background(), holdings, src.fetch, period)
	require.NoError(t, err)

	require.Len(t, got, 60, "rows beyond top-N stay in the table")
	assert.Len(t, Ranked(got), 50)
	assert.Len(t, src.calls, 50, "only top-N are fetched")
	for _, h := range got[50:] {
		assert.False(t, h.Attributed)
		assert.Equal(t, 0.0, h.Contribution)
	}
}

func TestAttribute_CanonicalOrderAndNoMutation(t *testing.T) {
	src := &fakeSource{series: map[string]contracts.PriceSeries{
		"X": closes(1, 2), "Y": closes(1, 2), "Z": closes(1, 2),
	}}
	holdings := contracts.HoldingsTable{
		{Symbol: "X", WeightPct: 10},
		{Symbol: "Y", WeightPct: 30},
		{Symbol: "Z", WeightPct: 10},
	}
	original := holdings.Clone()

	got, err := NewEngine(Config{Concurrency: 3}, nil, nil).Attribute(context.Background(), holdings, src.fetch, period)
	require.NoError(t, err)

	assert.Equal(t, []string{"Y", "X", "Z"}, []string{got[0].Symbol, got[1].Symbol, got[2].Symbol}, "weight desc, ties stable")
	assert.Equal(t, original, holdings, "input table untouched")
}

func TestAttribute_ContributionSumProperty(t *testing.T) {
	src := &fakeSource{series: map[string]contracts.PriceSeries{
		"A": closes(100, 112), "B": closes(50, 45), "C": closes(10, 10.5), "D": closes(7, 7),
	}}
	holdings := contracts.HoldingsTable{
		{Symbol: "A", WeightPct: 35},
		{Symbol: "B", WeightPct: 25},
		{Symbol: "C", WeightPct: 25},
		{Symbol: "D", WeightPct: 15},
	}

	got, err := NewEngine(Config{Concurrency: 2}, nil, nil).Attribute(context.Background(), holdings, src.fetch, period)
	require.NoError(t, err)

	var want float64
	for _, h := range got {
		want += h.WeightPct / 100 * h.Return
	}
	assert.InDelta(t, want, got.TotalContribution(), 1e-9)
}

func TestContribution_UnitGuard(t *testing.T) {
	// 가중치는 퍼센트: 7% × 10% = 0.7%p (분수 가중치 0.07 로 넣으면 100배 작아짐)
	assert.InDelta(t, 0.7, Contribution(10, 7), 1e-12)
	assert.InDelta(t, 0.007, Contribution(10, 0.07), 1e-12)
}

func TestAttribute_Names(t *testing.T) {
	src := &fakeSource{series: map[string]contracts.PriceSeries{
		"005930": closes(70000, 77000),
		"000660": closes(100, 100),
	}}
	holdings := contracts.HoldingsTable{
		{Symbol: "005930", WeightPct: 30, Name: "삼성전자(원본)"},
		{Symbol: "000660", WeightPct: 20},
		{Symbol: "035420", WeightPct: 10, Name: "NAVER"},
	}
	names := func(_ context.Context, symbol string) (string, error) {
		if symbol == "005930" {
			return "삼성전자", nil
		}
		return "", errors.New("lookup failed")
	}

	got, err := NewEngine(Config{}, nil, nil).WithNames(names).Attribute(context.Background(), holdings, src.fetch, period)
	require.NoError(t, err)

	assert.Equal(t, "삼성전자", got[0].Name)
	assert.Equal(t, "000660", got[1].Name, "falls back to the symbol")
	assert.Equal(t, "NAVER", got[2].Name, "keeps the source name on failure")
}

func TestAttribute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	fetch := func(ctx context.Context, symbol string, _, _ time.Time) (contracts.PriceSeries, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return closes(100, 101), nil
	}
	holdings := contracts.HoldingsTable{
		{Symbol: "A", WeightPct: 50},
		{Symbol: "B", WeightPct: 30},
		{Symbol: "C", WeightPct: 20},
	}

	got, err := NewEngine(Config{}, nil, nil).Attribute(ctx, holdings, fetch, period)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, got, 3, "partial table is returned")
	assert.Less(t, calls, 3)
}

func TestSummarize(t *testing.T) {
	table := contracts.HoldingsTable{
		{Symbol: "A", WeightPct: 60, Contribution: 3, Attributed: true, Resolved: true},
		{Symbol: "B", WeightPct: 30, Attributed: true},
		{Symbol: "C", WeightPct: 10},
	}

	s := Summarize(table, period.Start)
	assert.Equal(t, 3, s.Holdings)
	assert.Equal(t, 2, s.Attributed)
	assert.Equal(t, 1, s.Resolved)
	assert.InDelta(t, 90.0, s.AttributedWeight, 1e-12)
	assert.InDelta(t, 3.0, s.TotalContribution, 1e-12)
	assert.Equal(t, "2024-01-02", s.AsOf)
}
