package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/etfscope/internal/contracts"
)

// FetchPrices fetches daily OHLCV for a stock or ETF from the Naver chart API
// ⭐ SSOT: Naver Finance 가격 API 호출은 이 함수에서만
func (c *Client) FetchPrices(ctx context.Context, stockCode string, from, to time.Time) ([]PriceData, error) {
	params := url.Values{
		"symbol":      {stockCode},
		"requestType": {"1"},
		"startTime":   {from.Format("20060102")},
		"endTime":     {to.Format("20060102")},
		"timeframe":   {"day"},
	}

	body, err := c.fetchBody(ctx, c.chartBaseURL, "/siseJson.naver", params)
	if err != nil {
		return nil, err
	}

	prices, err := c.parsePriceResponse(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}
	for i := range prices {
		prices[i].StockCode = stockCode
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(prices),
	}).Debug("Fetched prices")
	return prices, nil
}

// FetchPriceHistory implements contracts.PriceSource.
// Market suffixes (.KS/.KQ) are stripped; an unknown code yields an empty series.
func (c *Client) FetchPriceHistory(ctx context.Context, identifier string, start, end time.Time) (contracts.PriceSeries, error) {
	prices, err := c.FetchPrices(ctx, bareCode(identifier), start, end)
	if err != nil {
		return nil, err
	}
	return toSeries(prices).Between(start, end), nil
}

// toSeries converts OHLCV rows into an ascending, date-unique close series
func toSeries(prices []PriceData) contracts.PriceSeries {
	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].TradeDate.Before(prices[j].TradeDate)
	})

	series := make(contracts.PriceSeries, 0, len(prices))
	for _, p := range prices {
		if n := len(series); n > 0 && series[n-1].Date.Equal(p.TradeDate) {
			series[n-1].Close = float64(p.ClosePrice)
			continue
		}
		series = append(series, contracts.PricePoint{Date: p.TradeDate, Close: float64(p.ClosePrice)})
	}
	return series
}

// parsePriceResponse parses Naver Finance JSON response
func (c *Client) parsePriceResponse(body string) ([]PriceData, error) {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	// Try JSON parsing first
	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return c.parsePriceJSON(rawData)
	}

	// Fallback to regex parsing
	return c.parsePriceRegex(body)
}

// parsePriceJSON parses JSON array format
func (c *Client) parsePriceJSON(rawData [][]interface{}) ([]PriceData, error) {
	var prices []PriceData
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue // Skip header
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		tradeDate, err := time.Parse("20060102", strings.Trim(dateStr, "\" "))
		if err != nil {
			continue
		}

		closePrice := toInt64(row[4])
		volume := toInt64(row[5])

		prices = append(prices, PriceData{
			TradeDate:    tradeDate,
			OpenPrice:    toInt64(row[1]),
			HighPrice:    toInt64(row[2]),
			LowPrice:     toInt64(row[3]),
			ClosePrice:   closePrice,
			Volume:       volume,
			TradingValue: closePrice * volume,
		})
	}
	return prices, nil
}

var priceRowRe = regexp.MustCompile(`\["(\d{8})",\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+)`)

// parsePriceRegex parses using regex (fallback)
func (c *Client) parsePriceRegex(body string) ([]PriceData, error) {
	matches := priceRowRe.FindAllStringSubmatch(body, -1)

	var prices []PriceData
	for _, match := range matches {
		if len(match) < 7 {
			continue
		}

		tradeDate, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}

		openPrice, _ := strconv.ParseInt(match[2], 10, 64)
		highPrice, _ := strconv.ParseInt(match[3], 10, 64)
		lowPrice, _ := strconv.ParseInt(match[4], 10, 64)
		closePrice, _ := strconv.ParseInt(match[5], 10, 64)
		volume, _ := strconv.ParseInt(match[6], 10, 64)

		prices = append(prices, PriceData{
			TradeDate:    tradeDate,
			OpenPrice:    openPrice,
			HighPrice:    highPrice,
			LowPrice:     lowPrice,
			ClosePrice:   closePrice,
			Volume:       volume,
			TradingValue: closePrice * volume,
		})
	}
	return prices, nil
}

// toInt64 converts various types to int64
func toInt64(v interface{}) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case int64:
		return val
	case int:
		return int64(val)
	case string:
		n, _ := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(val), ",", ""), 10, 64)
		return n
	default:
		return 0
	}
}
