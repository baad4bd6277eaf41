package krx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/wonny/etfscope/pkg/httputil"
	"github.com/wonny/etfscope/pkg/logger"
)

const (
	defaultBaseURL = "http://data.krx.co.kr"
	jsonDataPath   = "/comm/bldAttendant/getJsonData.cmd"

	// KRX 는 Referer 가 없으면 빈 응답을 준다
	referer = "http://data.krx.co.kr/contents/MDC/MDI/mdiLoader/index.cmd?menuId=MDC0201020101"
)

// Client handles communication with the KRX market data portal
// ⭐ SSOT: KRX 데이터 포털 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string

	// 단축코드 → 표준코드(ISIN) 캐시. ETF 목록 조회 시 채워진다
	mu     sync.RWMutex
	isins  map[string]string
	listed map[string]string // 단축코드 → 상장일 (YYYYMMDD)
}

// NewClient creates a new KRX client.
// The httputil client should carry the KRX Referer and rate limit (see cmd wiring).
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    defaultBaseURL,
	}
}

// WithBaseURL overrides the portal host (config, tests)
func (c *Client) WithBaseURL(baseURL string) *Client {
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// Referer returns the header value the portal expects
func Referer() string {
	return referer
}

// query posts one bld request and decodes the row block into out (a pointer to a slice).
// The portal answers with {"output": [...]} or {"OutBlock_1": [...]} depending on the screen.
func (c *Client) query(ctx context.Context, bld string, params url.Values, out interface{}) error {
	form := url.Values{
		"bld":         {bld},
		"locale":      {"ko_KR"},
		"csvxls_isNo": {"false"},
	}
	for k, v := range params {
		form[k] = v
	}

	resp, err := c.httpClient.PostForm(ctx, c.baseURL+jsonDataPath, form)
	if err != nil {
		return fmt.Errorf("KRX API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("KRX API returned status %d: %s", resp.StatusCode, string(body[:min(200, len(body))]))
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		preview := string(body[:min(500, len(body))])
		c.logger.WithField("response_preview", preview).Error("Failed to parse KRX response")
		return fmt.Errorf("decode KRX response: %w", err)
	}

	block, ok := envelope["output"]
	if !ok {
		block, ok = envelope["OutBlock_1"]
	}
	if !ok || len(block) == 0 || string(block) == "null" {
		c.logger.WithField("bld", bld).Debug("KRX API returned no rows")
		return nil
	}

	if err := json.Unmarshal(block, out); err != nil {
		return fmt.Errorf("decode KRX rows: %w", err)
	}
	return nil
}
