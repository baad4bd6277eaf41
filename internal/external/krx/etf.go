package krx

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/resolver"
)

const (
	bldETFList   = "dbms/MDC/STAT/standard/MDCSTAT04601"
	bldETFPrices = "dbms/MDC/STAT/standard/MDCSTAT04501"
)

// historyStart is the first date the portal serves ETF history for
var historyStart = time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC)

// etfListRow is one row of the ETF 전종목 기본정보 screen
type etfListRow struct {
	ISUCode      string `json:"ISU_CD"`     // 표준코드 (KR7069500007)
	ISUShortCode string `json:"ISU_SRT_CD"` // 단축코드 (069500)
	ISUAbbrv     string `json:"ISU_ABBRV"`  // 종목명
	ListDate     string `json:"LIST_DD"`    // 상장일
}

// etfPriceRow is one row of the ETF 개별종목 시세 추이 screen
type etfPriceRow struct {
	TradeDate  string `json:"TRD_DD"`
	ClosePrice string `json:"TDD_CLSPRC"`
	NAV        string `json:"NAV"`
}

// ListUniverse implements contracts.UniverseSource with every listed ETF
// ⭐ SSOT: ETF 전종목 목록 조회는 이 함수에서만
func (c *Client) ListUniverse(ctx context.Context) ([]contracts.Instrument, error) {
	var rows []etfListRow
	if err := c.query(ctx, bldETFList, url.Values{"share": {"1"}}, &rows); err != nil {
		return nil, fmt.Errorf("fetch ETF list: %w", err)
	}

	isins := make(map[string]string, len(rows))
	listed := make(map[string]string, len(rows))
	out := make([]contracts.Instrument, 0, len(rows))
	for _, r := range rows {
		code := strings.TrimSpace(r.ISUShortCode)
		if code == "" {
			continue
		}
		isins[code] = strings.TrimSpace(r.ISUCode)
		listed[code] = strings.TrimSpace(r.ListDate)
		out = append(out, contracts.Instrument{Code: code, Name: strings.TrimSpace(r.ISUAbbrv)})
	}

	c.mu.Lock()
	c.isins, c.listed = isins, listed
	c.mu.Unlock()

	c.logger.WithField("count", len(out)).Info("Fetched ETF list from KRX")
	return out, nil
}

// isinFor maps a short code to the standard code the price/PDF screens require.
// The ETF list is loaded on first use.
func (c *Client) isinFor(ctx context.Context, code string) (string, bool, error) {
	c.mu.RLock()
	loaded := c.isins != nil
	isin, ok := c.isins[code]
	c.mu.RUnlock()
	if loaded {
		return isin, ok && isin != "", nil
	}

	if _, err := c.ListUniverse(ctx); err != nil {
		return "", false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	isin, ok = c.isins[code]
	return isin, ok && isin != "", nil
}

// FetchPriceHistory implements contracts.PriceSource for ETFs: daily close plus NAV.
// An unknown code yields an empty series.
func (c *Client) FetchPriceHistory(ctx context.Context, identifier string, start, end time.Time) (contracts.PriceSeries, error) {
	code := shortCode(identifier)
	isin, ok, err := c.isinFor(ctx, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.logger.WithField("code", code).Debug("Not a listed ETF")
		return contracts.PriceSeries{}, nil
	}

	params := url.Values{
		"isuCd":  {isin},
		"strtDd": {krxDate(start)},
		"endDd":  {krxDate(end)},
	}
	var rows []etfPriceRow
	if err := c.query(ctx, bldETFPrices, params, &rows); err != nil {
		return nil, fmt.Errorf("fetch ETF prices %s: %w", code, err)
	}

	series := make(contracts.PriceSeries, 0, len(rows))
	for _, r := range rows {
		date, ok := parseDate(r.TradeDate)
		if !ok {
			continue
		}
		closePrice, ok := parseNumber(r.ClosePrice)
		if !ok {
			continue
		}
		p := contracts.PricePoint{Date: date, Close: closePrice}
		if nav, ok := parseNumber(r.NAV); ok {
			p.NAV = &nav
		}
		series = append(series, p)
	}

	c.logger.WithFields(map[string]interface{}{
		"code":  code,
		"count": len(series),
	}).Debug("Fetched ETF prices from KRX")
	return ascending(series).Between(start, end), nil
}

// FetchAttribute implements the listing-date resolver provider.
// The earliest row of the full history is the first trading day; the
// list's LIST_DD is used when the history screen returns nothing.
func (c *Client) FetchAttribute(ctx context.Context, identifier, key string) (time.Time, bool, error) {
	if key != resolver.KeyListingDate {
		return time.Time{}, false, nil
	}

	series, err := c.FetchPriceHistory(ctx, identifier, historyStart, time.Now())
	if err != nil {
		return time.Time{}, false, err
	}
	if !series.IsEmpty() {
		return series.First().Date, true, nil
	}

	c.mu.RLock()
	listDate := c.listed[shortCode(identifier)]
	c.mu.RUnlock()
	if d, ok := parseDate(listDate); ok {
		return d, true, nil
	}
	return time.Time{}, false, nil
}

// ascending sorts rows by date (the portal returns newest first) and drops duplicate dates
func ascending(series contracts.PriceSeries) contracts.PriceSeries {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	out := series[:0]
	for _, p := range series {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// shortCode strips a market suffix ("069500.KS" → "069500")
func shortCode(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, "."); i > 0 {
		return id[:i]
	}
	return id
}
