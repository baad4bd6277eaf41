package krx

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const bldBondYields = "dbms/MDC/STAT/standard/MDCSTAT11401"

// Bond yield rows shown on the market dashboard
const (
	BondGov3Y     = "국고채 3년"
	BondCorpAAm3Y = "회사채 AA-(무보증 3년)"
)

// BondYield is one benchmark yield on a date
type BondYield struct {
	Name   string    `json:"name"`
	Date   time.Time `json:"date"`
	Yield  float64   `json:"yield"`  // %
	Change float64   `json:"change"` // 전일대비 %p
}

type bondRow struct {
	Name   string `json:"ITM_TP_NM"`
	Yield  string `json:"LST_ORD_BAS_YD"`
	Change string `json:"CMP_PRV_DD_PRC"`
}

// FetchBondYields returns the 장외 채권수익률 rows for one trading day
func (c *Client) FetchBondYields(ctx context.Context, date time.Time) ([]BondYield, error) {
	params := url.Values{
		"inqTpCd": {"T"},
		"trdDd":   {krxDate(date)},
	}
	var rows []bondRow
	if err := c.query(ctx, bldBondYields, params, &rows); err != nil {
		return nil, fmt.Errorf("fetch bond yields: %w", err)
	}

	out := make([]BondYield, 0, len(rows))
	for _, r := range rows {
		y, ok := parseNumber(r.Yield)
		if !ok {
			continue
		}
		chg, _ := parseNumber(r.Change)
		out = append(out, BondYield{Name: strings.TrimSpace(r.Name), Date: date, Yield: y, Change: chg})
	}
	return out, nil
}

// LatestBondYields walks back from asOf up to lookbackDays until a trading day has data
func (c *Client) LatestBondYields(ctx context.Context, asOf time.Time, lookbackDays int) ([]BondYield, error) {
	for i := 0; i <= lookbackDays; i++ {
		day := asOf.AddDate(0, 0, -i)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		yields, err := c.FetchBondYields(ctx, day)
		if err != nil {
			return nil, err
		}
		if len(yields) > 0 {
			return yields, nil
		}
	}
	return nil, nil
}
