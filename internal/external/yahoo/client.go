package yahoo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/wonny/etfscope/internal/contracts"
	"github.com/wonny/etfscope/internal/metrics"
	"github.com/wonny/etfscope/internal/resolver"
	"github.com/wonny/etfscope/pkg/logger"
	"github.com/wonny/etfscope/pkg/redis"
)

// DefaultUSDKRWSymbol is the Yahoo symbol of the won/dollar rate
const DefaultUSDKRWSymbol = "KRW=X"

// quoter is the subset of a go-yfinance ticker this package needs
type quoter interface {
	History(params models.HistoryParams) ([]models.Bar, error)
	Info() (*models.Info, error)
	Close()
}

// quoterFactory opens a quoter for one symbol
type quoterFactory func(symbol string) (quoter, error)

// yfTicker adapts *ticker.Ticker to quoter
type yfTicker struct {
	t *ticker.Ticker
}

func (y yfTicker) History(params models.HistoryParams) ([]models.Bar, error) {
	return y.t.History(params)
}

func (y yfTicker) Info() (*models.Info, error) {
	return y.t.Info()
}

func (y yfTicker) Close() {
	y.t.Close()
}

func openTicker(symbol string) (quoter, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, err
	}
	return yfTicker{t: t}, nil
}

// Client wraps go-yfinance for listing dates, foreign prices and display names
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	open    quoterFactory
	logger  *logger.Logger
	metrics *metrics.Recorder

	limiter *redis.RateLimiter
	limit   redis.RateLimitConfig
}

// NewClient creates a Yahoo Finance client
func NewClient(log *logger.Logger, rec *metrics.Recorder) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{open: openTicker, logger: log, metrics: rec}
}

// WithRateLimiter throttles every ticker request through the shared limiter
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *Client {
	c.limiter = limiter
	c.limit = cfg
	return c
}

// history loads daily bars for symbol over period ("1mo", "1y", "max", ...)
func (c *Client) history(ctx context.Context, symbol, period string) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.limit); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	defer c.metrics.ObserveUpstream("yahoo", time.Now())

	t, err := c.open(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker %s: %w", symbol, err)
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices %s: %w", symbol, err)
	}
	return bars, nil
}

// FetchAttribute implements the listing-date resolver provider: the earliest bar of the
// full history. No history means the symbol is absent on Yahoo.
func (c *Client) FetchAttribute(ctx context.Context, identifier, key string) (time.Time, bool, error) {
	if key != resolver.KeyListingDate {
		return time.Time{}, false, nil
	}

	bars, err := c.history(ctx, identifier, "max")
	if err != nil {
		return time.Time{}, false, err
	}

	var earliest time.Time
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}
		if earliest.IsZero() || b.Date.Before(earliest) {
			earliest = b.Date
		}
	}
	if earliest.IsZero() {
		return time.Time{}, false, nil
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":       identifier,
		"listing_date": earliest.Format(contracts.DateLayout),
	}).Debug("Yahoo listing date")
	return contracts.DateOf(earliest), true, nil
}

// FetchPriceHistory implements contracts.PriceSource. Dates are filtered client-side
// because go-yfinance takes a lookback period rather than a start date.
func (c *Client) FetchPriceHistory(ctx context.Context, identifier string, start, end time.Time) (contracts.PriceSeries, error) {
	bars, err := c.history(ctx, identifier, periodFor(start, time.Now()))
	if err != nil {
		return nil, err
	}
	return toSeries(bars).Between(start, end), nil
}

// FetchDisplayName implements contracts.NameSource
func (c *Client) FetchDisplayName(ctx context.Context, identifier string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	defer c.metrics.ObserveUpstream("yahoo", time.Now())

	t, err := c.open(identifier)
	if err != nil {
		return "", fmt.Errorf("failed to create ticker %s: %w", identifier, err)
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return "", fmt.Errorf("failed to get info %s: %w", identifier, err)
	}
	if info == nil {
		return "", fmt.Errorf("no info for %s", identifier)
	}
	if name := strings.TrimSpace(info.ShortName); name != "" {
		return name, nil
	}
	if name := strings.TrimSpace(info.LongName); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("no name for %s", identifier)
}

// periodFor picks the shortest Yahoo period string covering start..now
func periodFor(start, now time.Time) string {
	days := now.Sub(start).Hours() / 24
	switch {
	case days <= 28:
		return "1mo"
	case days <= 88:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 362:
		return "1y"
	case days <= 2*362:
		return "2y"
	case days <= 5*362:
		return "5y"
	case days <= 10*362:
		return "10y"
	default:
		return "max"
	}
}

// toSeries converts bars to an ascending, date-unique close series
func toSeries(bars []models.Bar) contracts.PriceSeries {
	series := make(contracts.PriceSeries, 0, len(bars))
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}
		series = append(series, contracts.PricePoint{Date: contracts.DateOf(b.Date), Close: b.Close})
	}
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
