package contracts

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format exchanged with callers (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// PricePoint is one trading day of a price series
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
	NAV   *float64  `json:"nav,omitempty"` // ETF 순자산가치 (제공되는 경우만)
}

// PriceSeries is an ascending, date-unique daily price series
// ⭐ SSOT: 가격 시계열 타입은 여기서만 정의
type PriceSeries []PricePoint

// IsEmpty reports whether the series has no points
func (s PriceSeries) IsEmpty() bool {
	return len(s) == 0
}

// First returns the earliest point. Panics on an empty series.
func (s PriceSeries) First() PricePoint {
	return s[0]
}

// Last returns the latest point. Panics on an empty series.
func (s PriceSeries) Last() PricePoint {
	return s[len(s)-1]
}

// HasNAV reports whether every point carries a NAV value
func (s PriceSeries) HasNAV() bool {
	if len(s) == 0 {
		return false
	}
	for _, p := range s {
		if p.NAV == nil {
			return false
		}
	}
	return true
}

// Between returns the points whose date falls inside [start, end]
func (s PriceSeries) Between(start, end time.Time) PriceSeries {
	start, end = DateOf(start), DateOf(end)
	out := make(PriceSeries, 0, len(s))
	for _, p := range s {
		d := DateOf(p.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// DailyReturn is the fractional change from the previous trading day (0.01 = 1%)
type DailyReturn struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// DailyReturnSeries is derived from a PriceSeries; its length is len(series)-1
type DailyReturnSeries []DailyReturn

// AlignedPair holds the two returns observed on the same date
type AlignedPair struct {
	Date time.Time `json:"date"`
	A    float64   `json:"a"`
	B    float64   `json:"b"`
}

// AlignedReturns is the inner join of two return series, ascending by date
type AlignedReturns []AlignedPair

// A returns the first series' returns in date order
func (a AlignedReturns) A() []float64 {
	out := make([]float64, len(a))
	for i, p := range a {
		out[i] = p.A
	}
	return out
}

// B returns the second series' returns in date order
func (a AlignedReturns) B() []float64 {
	out := make([]float64, len(a))
	for i, p := range a {
		out[i] = p.B
	}
	return out
}

// DateRange is a closed calendar date interval supplied by the caller
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange parses two YYYY-MM-DD (or YYYYMMDD) dates
func NewDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse start date: %w", err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse end date: %w", err)
	}
	r := DateRange{Start: s, End: e}
	return r, r.Validate()
}

// Validate checks that End is not before Start
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidRange)
	}
	if DateOf(r.End).Before(DateOf(r.Start)) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidRange,
			r.End.Format(DateLayout), r.Start.Format(DateLayout))
	}
	return nil
}

// String renders the range as "start~end"
func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + "~" + r.End.Format(DateLayout)
}

// ParseDate accepts YYYY-MM-DD or the compact KRX form YYYYMMDD
func ParseDate(s string) (time.Time, error) {
	if len(s) == 8 {
		return time.Parse("20060102", s)
	}
	return time.Parse(DateLayout, s)
}

// DateOf truncates a timestamp to its calendar date (UTC)
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
