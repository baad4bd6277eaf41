package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/etfscope/internal/contracts"
)

// etfListResponse is the sise ETF list API payload
type etfListResponse struct {
	ResultCode string `json:"resultCode"`
	Result     struct {
		ETFItemList []etfItem `json:"etfItemList"`
	} `json:"result"`
}

type etfItem struct {
	ItemCode   string  `json:"itemcode"`
	ItemName   string  `json:"itemname"`
	ETFTabCode int     `json:"etfTabCode"`
	NowVal     float64 `json:"nowVal"`
	NAV        float64 `json:"nav"`
	MarketSum  float64 `json:"marketSum"`
}

// ListUniverse implements contracts.UniverseSource from the Naver ETF list.
// Used as a fallback when the KRX portal is unavailable.
func (c *Client) ListUniverse(ctx context.Context) ([]contracts.Instrument, error) {
	params := url.Values{
		"etfType":      {"0"},
		"targetColumn": {"market_sum"},
		"sortOrder":    {"desc"},
	}
	body, err := c.fetchBody(ctx, c.baseURL, "/api/sise/etfItemList.nhn", params)
	if err != nil {
		return nil, err
	}

	var resp etfListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode etf list: %w", err)
	}
	if resp.ResultCode != "" && resp.ResultCode != "success" {
		return nil, fmt.Errorf("etf list result code: %s", resp.ResultCode)
	}

	out := make([]contracts.Instrument, 0, len(resp.Result.ETFItemList))
	for _, it := range resp.Result.ETFItemList {
		code := strings.TrimSpace(it.ItemCode)
		if code == "" {
			continue
		}
		out = append(out, contracts.Instrument{Code: code, Name: strings.TrimSpace(it.ItemName)})
	}

	c.logger.WithField("count", len(out)).Debug("Fetched ETF list from Naver")
	return out, nil
}
