// Package market builds the market overview shown next to an analysis:
// KOSPI, KOSDAQ, USD/KRW and benchmark bond yields with their daily change.
package market

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/external/krx"
	"github.com/wonny/etfscope/pkg/logger"
)

// Quote statuses
const (
	StatusOK    = "ok"
	StatusNA    = "na"    // 데이터 없음
	StatusError = "error" // 조회 실패
)

// Dashboard item names
const (
	NameKOSPI    = "KOSPI"
	NameKOSDAQ   = "KOSDAQ"
	NameUSDKRW   = "USD/KRW"
	NameGovBond  = "Gov Bond 3Y"
	NameCorpBond = "Corp Bond AA-"
)

// Quote is one dashboard item: latest value and change from the previous close
type Quote struct {
	Name   string          `json:"name"`
	Value  contracts.Ratio `json:"value"`
	Delta  float64         `json:"delta"`
	Status string          `json:"status"`
}

// String renders "2655.28 (+12.34)", or the status when there is no value
func (q Quote) String() string {
	switch q.Status {
	case StatusError:
		return "Error"
	case StatusNA:
		return contracts.NotAvailable
	}
	return fmt.Sprintf("%s (%+.2f)", q.Value.String(), q.Delta)
}

// Snapshot is the whole dashboard at a reference date
type Snapshot struct {
	RefDate string  `json:"ref_date"`
	Quotes  []Quote `json:"quotes"`
}

// Quote returns the item called name
func (s Snapshot) Quote(name string) (Quote, bool) {
	for _, q := range s.Quotes {
		if q.Name == name {
			return q, true
		}
	}
	return Quote{}, false
}

// Series is one price-backed dashboard item
type Series struct {
	Name   string
	Symbol string
	Source contracts.PriceSource
}

// BondSource returns the latest benchmark yields on or before a date
type BondSource interface {
	LatestBondYields(ctx context.Context, asOf time.Time, lookbackDays int) ([]krx.BondYield, error)
}

const (
	historyWindow    = 10 * 24 * time.Hour // 최근 2거래일을 확보할 만큼
	bondLookbackDays = 7
)

// Dashboard assembles market snapshots
type Dashboard struct {
	series []Series
	bonds  BondSource
	logger *logger.Logger
	now    func() time.Time
}

// NewDashboard creates a dashboard; the first series provides the reference date
func NewDashboard(series []Series, bonds BondSource, log *logger.Logger) *Dashboard {
	if log == nil {
		log = logger.NewNop()
	}
	return &Dashboard{series: series, bonds: bonds, logger: log, now: time.Now}
}

// Snapshot fetches every item. Failures are reported per item and never fail the whole snapshot.
func (d *Dashboard) Snapshot(ctx context.Context) Snapshot {
	now := d.now()
	snap := Snapshot{RefDate: now.Format(contracts.DateLayout)}

	for i, s := range d.series {
		series, err := s.Source.FetchPriceHistory(ctx, s.Symbol, now.Add(-historyWindow), now)
		if err != nil {
			d.logger.WithError(err).WithField("item", s.Name).Warn("Market quote failed")
			snap.Quotes = append(snap.Quotes, Quote{Name: s.Name, Value: contracts.NA(), Status: StatusError})
			continue
		}
		snap.Quotes = append(snap.Quotes, quoteFrom(s.Name, series))

		// 기준일: 첫 항목(KOSPI)의 마지막 거래일
		if i == 0 && !series.IsEmpty() {
			snap.RefDate = series.Last().Date.Format(contracts.DateLayout)
		}
	}

	if d.bonds != nil {
		snap.Quotes = append(snap.Quotes, d.bondQuotes(ctx, now)...)
	}
	return snap
}

func (d *Dashboard) bondQuotes(ctx context.Context, now time.Time) []Quote {
	wanted := []struct{ name, row string }{
		{NameGovBond, krx.BondGov3Y},
		{NameCorpBond, krx.BondCorpAAm3Y},
	}

	yields, err := d.bonds.LatestBondYields(ctx, now, bondLookbackDays)
	out := make([]Quote, 0, len(wanted))
	for _, w := range wanted {
		q := Quote{Name: w.name, Value: contracts.NA(), Status: StatusNA}
		if err != nil {
			q.Status = StatusError
		}
		for _, y := range yields {
			if y.Name == w.row {
				q = Quote{Name: w.name, Value: contracts.Some(y.Yield), Delta: y.Change, Status: StatusOK}
				break
			}
		}
		out = append(out, q)
	}
	if err != nil {
		d.logger.WithError(err).Warn("Bond yields failed")
	}
	return out
}

// quoteFrom takes value and delta from the last two closes; one close means delta 0
func quoteFrom(name string, series contracts.PriceSeries) Quote {
	switch len(series) {
	case 0:
		return Quote{Name: name, Value: contracts.NA(), Status: StatusNA}
	case 1:
		return Quote{Name: name, Value: contracts.Some(round2(series.Last().Close)), Status: StatusOK}
	}
	last := series[len(series)-1].Close
	prev := series[len(series)-2].Close
	return Quote{
		Name:   name,
		Value:  contracts.Some(round2(last)),
		Delta:  round2(last - prev),
		Status: StatusOK,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
