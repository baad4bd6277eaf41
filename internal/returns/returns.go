// Package returns turns price series into period and daily returns and
// aligns return series on common trading dates.
package returns

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonny/etfscope/internal/contracts"
)

// Field selects which price of a point a return is computed on
type Field int

const (
	// Close uses the closing price
	Close Field = iota
	// NAV uses the ETF net asset value; points without NAV fall back to Close
	NAV
)

func (f Field) value(p contracts.PricePoint) float64 {
	if f == NAV && p.NAV != nil {
		return *p.NAV
	}
	return p.Close
}

// PeriodReturn returns (last.Close - first.Close) / first.Close * 100
// ⭐ SSOT: 기간 수익률 계산은 여기서만
func PeriodReturn(series contracts.PriceSeries) (float64, error) {
	return PeriodReturnBy(series, Close)
}

// PeriodReturnBy is PeriodReturn on the chosen price field
func PeriodReturnBy(series contracts.PriceSeries, field Field) (float64, error) {
	if len(series) < 1 {
		return 0, contracts.ErrInsufficientData
	}

	first := field.value(series.First())
	last := field.value(series.Last())
	if first <= 0 {
		return 0, fmt.Errorf("%w: %v on %s", contracts.ErrInvalidPrice,
			first, series.First().Date.Format(contracts.DateLayout))
	}

	return (last - first) / first * 100, nil
}

// DailyReturns returns the fractional close-to-close change for each day after the first.
// A series of one point (or none) yields an empty result.
func DailyReturns(series contracts.PriceSeries) (contracts.DailyReturnSeries, error) {
	if len(series) < 2 {
		return contracts.DailyReturnSeries{}, nil
	}

	out := make(contracts.DailyReturnSeries, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Close
		if prev <= 0 {
			return nil, fmt.Errorf("%w: %v on %s", contracts.ErrInvalidPrice,
				prev, series[i-1].Date.Format(contracts.DateLayout))
		}
		out = append(out, contracts.DailyReturn{
			Date:   series[i].Date,
			Return: (series[i].Close - prev) / prev,
		})
	}
	return out, nil
}

// Align inner-joins two return series on calendar date.
// Dates present in only one series are dropped; zero overlap is ErrEmptyAlignment.
// ⭐ SSOT: 시계열 정렬(inner join)은 여기서만
func Align(a, b contracts.DailyReturnSeries) (contracts.AlignedReturns, error) {
	byDate := make(map[time.Time]float64, len(b))
	for _, r := range b {
		byDate[contracts.DateOf(r.Date)] = r.Return
	}

	aligned := make(contracts.AlignedReturns, 0, min(len(a), len(b)))
	seen := make(map[time.Time]struct{}, len(a))
	for _, r := range a {
		key := contracts.DateOf(r.Date)
		if _, dup := seen[key]; dup {
			continue
		}
		rb, ok := byDate[key]
		if !ok {
			continue
		}
		seen[key] = struct{}{}
		aligned = append(aligned, contracts.AlignedPair{Date: key, A: r.Return, B: rb})
	}

	if len(aligned) == 0 {
		return nil, contracts.ErrEmptyAlignment
	}

	sort.SliceStable(aligned, func(i, j int) bool {
		return aligned[i].Date.Before(aligned[j].Date)
	})
	return aligned, nil
}
