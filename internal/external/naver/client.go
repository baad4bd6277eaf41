package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/wonny/etfscope/pkg/httputil"
	"github.com/wonny/etfscope/pkg/logger"
)

const (
	defaultBaseURL      = "https://finance.naver.com"
	defaultChartBaseURL = "https://fchart.stock.naver.com"
)

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	baseURL      string
	chartBaseURL string
}

// NewClient creates a new Naver Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient:   httpClient,
		logger:       log,
		baseURL:      defaultBaseURL,
		chartBaseURL: defaultChartBaseURL,
	}
}

// WithBaseURLs overrides the finance and chart hosts (config, tests)
func (c *Client) WithBaseURLs(baseURL, chartBaseURL string) *Client {
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	if chartBaseURL != "" {
		c.chartBaseURL = strings.TrimRight(chartBaseURL, "/")
	}
	return c
}

// fetchBody GETs host+path and returns the body decoded to UTF-8.
// Naver pages are served as EUC-KR; the Content-Type charset drives decoding.
func (c *Client) fetchBody(ctx context.Context, host, path string, params url.Values) ([]byte, error) {
	fullURL := fmt.Sprintf("%s%s", host, path)
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// PriceData represents daily price data
type PriceData struct {
	StockCode    string
	TradeDate    time.Time
	OpenPrice    int64
	HighPrice    int64
	LowPrice     int64
	ClosePrice   int64
	Volume       int64
	TradingValue int64
}

// bareCode strips a market suffix ("005930.KS" → "005930")
func bareCode(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, "."); i > 0 {
		return id[:i]
	}
	return id
}
