package returns

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/etfscope/internal/contracts"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func series(closes ...float64) contracts.PriceSeries {
	s := make(contracts.PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = contracts.PricePoint{Date: day(i), Close: c}
	}
	return s
}

func TestPeriodReturn_Scenarios(t *testing.T) {
	etf, err := PeriodReturn(series(100, 110))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, etf, 1e-12)

	bm, err := PeriodReturn(series(200, 198))
	require.NoError(t, err)
	assert.InDelta(t, -1.0, bm, 1e-12)

	assert.InDelta(t, 11.0, etf-bm, 1e-12)
}

func TestPeriodReturn_Errors(t *testing.T) {
	_, err := PeriodReturn(contracts.PriceSeries{})
	assert.True(t, errors.Is(err, contracts.ErrInsufficientData))

	_, err = PeriodReturn(series(0, 10))
	assert.True(t, errors.Is(err, contracts.ErrInvalidPrice))

	_, err = PeriodReturn(series(-5, 10))
	assert.True(t, errors.Is(err, contracts.ErrInvalidPrice))

	// 한 점짜리 시계열은 0%
	got, err := PeriodReturn(series(1234))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestPeriodReturn_ScaleInvariant(t *testing.T) {
	base := []float64{100, 97.5, 104.2, 99.9, 120.3}
	want, err := PeriodReturn(series(base...))
	require.NoError(t, err)

	for _, k := range []float64{0.001, 0.5, 3, 1e6} {
		scaled := make([]float64, len(base))
		for i, v := range base {
			scaled[i] = v * k
		}
		got, err := PeriodReturn(series(scaled...))
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9, "scale %v", k)
	}
}

func TestPeriodReturnBy_NAV(t *testing.T) {
	n1, n2 := 1000.0, 1050.0
	s := contracts.PriceSeries{
		{Date: day(0), Close: 100, NAV: &n1},
		{Date: day(1), Close: 110, NAV: &n2},
	}

	byNAV, err := PeriodReturnBy(s, NAV)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, byNAV, 1e-12)

	byClose, err := PeriodReturnBy(s, Close)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, byClose, 1e-12)
}

func TestDailyReturns_Length(t *testing.T) {
	for n := 0; n <= 6; n++ {
		closes := make([]float64, n)
		for i := range closes {
			closes[i] = 100 + float64(i)
		}
		got, err := DailyReturns(series(closes...))
		require.NoError(t, err)

		want := n - 1
		if n <= 1 {
			want = 0
		}
		assert.Len(t, got, want, "n=%d", n)
	}
}

func TestDailyReturns_Values(t *testing.T) {
	got, err := DailyReturns(series(100, 110, 99))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, day(1), got[0].Date, "first element is dropped")
	assert.InDelta(t, 0.10, got[0].Return, 1e-12)
	assert.InDelta(t, -0.10, got[1].Return, 1e-12)

	_, err = DailyReturns(series(100, 0, 5))
	assert.True(t, errors.Is(err, contracts.ErrInvalidPrice))
}

func rets(days []int, values []float64) contracts.DailyReturnSeries {
	out := make(contracts.DailyReturnSeries, len(days))
	for i := range days {
		out[i] = contracts.DailyReturn{Date: day(days[i]), Return: values[i]}
	}
	return out
}

func TestAlign_IntersectionAndOrder(t *testing.T) {
	a := rets([]int{1, 2, 3, 5}, []float64{0.01, 0.02, 0.03, 0.05})
	b := rets([]int{5, 2, 4, 1}, []float64{-0.5, -0.2, -0.4, -0.1})

	got, err := Align(a, b)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, day(1), got[0].Date)
	assert.Equal(t, day(2), got[1].Date)
	assert.Equal(t, day(5), got[2].Date)
	assert.Equal(t, []float64{0.01, 0.02, 0.05}, got.A())
	assert.Equal(t, []float64{-0.1, -0.2, -0.5}, got.B())
}

func TestAlign_Commutative(t *testing.T) {
	a := rets([]int{1, 2, 3, 7}, []float64{0.01, 0.02, 0.03, 0.07})
	b := rets([]int{2, 3, 4, 7}, []float64{0.2, 0.3, 0.4, 0.7})

	ab, err := Align(a, b)
	require.NoError(t, err)
	ba, err := Align(b, a)
	require.NoError(t, err)

	require.Equal(t, len(ab), len(ba))
	for i := range ab {
		assert.Equal(t, ab[i].Date, ba[i].Date)
		assert.Equal(t, ab[i].A, ba[i].B)
		assert.Equal(t, ab[i].B, ba[i].A)
	}
}

func TestAlign_IgnoresTimeOfDay(t *testing.T) {
	a := contracts.DailyReturnSeries{{Date: day(1).Add(15 * time.Hour), Return: 0.01}}
	b := contracts.DailyReturnSeries{{Date: day(1), Return: 0.02}}

	got, err := Align(a, b)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAlign_NoOverlap(t *testing.T) {
	a := rets([]int{1, 2}, []float64{0.01, 0.02})
	b := rets([]int{3, 4}, []float64{0.03, 0.04})

	_, err := Align(a, b)
	assert.True(t, errors.Is(err, contracts.ErrEmptyAlignment))

	_, err = Align(nil, b)
	assert.True(t, errors.Is(err, contracts.ErrEmptyAlignment))
}

func TestAlign_NoNaNLeak(t *testing.T) {
	a := rets([]int{1}, []float64{math.Inf(1)})
	b := rets([]int{1}, []float64{0.01})
	got, err := Align(a, b)
	require.NoError(t, err)
	assert.True(t, math.IsInf(got[0].A, 1), "values pass through untouched")
}
