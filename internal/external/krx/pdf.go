package krx

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/holdings"
)

const bldETFPDF = "dbms/MDC/STAT/standard/MDCSTAT05001"

// pdfRow is one constituent of the ETF 구성종목(PDF) screen
type pdfRow struct {
	Code   string `json:"COMPST_ISU_CD"`
	Name   string `json:"COMPST_ISU_NM"`
	Amount string `json:"VALU_AMT"`   // 평가금액
	Weight string `json:"COMPST_RTO"` // 구성비중 (%)
}

// FetchHoldings implements contracts.HoldingsSource from the PDF disclosed for asOf.
// Weights are reported in percent. A non-trading day or unknown ETF yields an empty table.
func (c *Client) FetchHoldings(ctx context.Context, identifier string, asOf time.Time) (contracts.HoldingsTable, error) {
	code := shortCode(identifier)
	isin, ok, err := c.isinFor(ctx, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return contracts.HoldingsTable{}, nil
	}

	params := url.Values{
		"isuCd": {isin},
		"trdDd": {krxDate(asOf)},
	}
	var rows []pdfRow
	if err := c.query(ctx, bldETFPDF, params, &rows); err != nil {
		return nil, fmt.Errorf("fetch PDF %s: %w", code, err)
	}

	raw := make(contracts.HoldingsTable, 0, len(rows))
	for _, r := range rows {
		h := contracts.Holding{Symbol: r.Code, Name: r.Name}
		if w, ok := parseNumber(r.Weight); ok {
			h.WeightPct = w
		}
		if amt, ok := parseNumber(r.Amount); ok {
			h.Amount = &amt
		}
		raw = append(raw, h)
	}

	table, err := holdings.Normalize(raw, holdings.ScalePercent)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"code":  code,
		"date":  asOf.Format(contracts.DateLayout),
		"count": len(table),
	}).Debug("Fetched PDF from KRX")
	return table, nil
}
