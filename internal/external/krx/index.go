package krx

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/etfscope/internal/contracts"
)

const bldIndexPrices = "dbms/MDC/STAT/standard/MDCSTAT00301"

// Well-known index codes (계열구분 1자리 + 지수코드 3자리)
const (
	IndexKOSPI     = "1001"
	IndexKOSPI200  = "1028"
	IndexKOSDAQ    = "2001"
	IndexKOSDAQ150 = "2203"
)

// indexPriceRow is one row of the 개별지수 시세 추이 screen
type indexPriceRow struct {
	TradeDate  string `json:"TRD_DD"`
	ClosePrice string `json:"CLSPRC_IDX"`
}

// IndexSource adapts the client into a contracts.PriceSource for index codes
// (the benchmark and the market dashboard)
type IndexSource struct {
	c *Client
}

// Indexes returns an index price source backed by this client
func (c *Client) Indexes() *IndexSource {
	return &IndexSource{c: c}
}

// FetchPriceHistory implements contracts.PriceSource for a 4-digit index code
func (s *IndexSource) FetchPriceHistory(ctx context.Context, identifier string, start, end time.Time) (contracts.PriceSeries, error) {
	return s.c.FetchIndexHistory(ctx, identifier, start, end)
}

// FetchIndexHistory fetches daily closes of an index such as "1001" (KOSPI)
// ⭐ SSOT: 지수 시세 조회는 이 함수에서만
func (c *Client) FetchIndexHistory(ctx context.Context, indexCode string, start, end time.Time) (contracts.PriceSeries, error) {
	indexCode = strings.TrimSpace(indexCode)
	if len(indexCode) != 4 {
		return nil, fmt.Errorf("invalid index code %q: want 4 digits like %s", indexCode, IndexKOSPI)
	}

	params := url.Values{
		"indIdx":  {indexCode[:1]},
		"indIdx2": {indexCode[1:]},
		"strtDd":  {krxDate(start)},
		"endDd":   {krxDate(end)},
	}
	var rows []indexPriceRow
	if err := c.query(ctx, bldIndexPrices, params, &rows); err != nil {
		return nil, fmt.Errorf("fetch index %s: %w", indexCode, err)
	}

	series := make(contracts.PriceSeries, 0, len(rows))
	for _, r := range rows {
		date, ok := parseDate(r.TradeDate)
		if !ok {
			continue
		}
		closeIdx, ok := parseNumber(r.ClosePrice)
		if !ok {
			continue
		}
		series = append(series, contracts.PricePoint{Date: date, Close: closeIdx})
	}

	c.logger.WithFields(map[string]interface{}{
		"index": indexCode,
		"count": len(series),
	}).Debug("Fetched index prices from KRX")
	return ascending(series).Between(start, end), nil
}
