package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"

	"github.com/wonny/etfscope/pkg/config"
	"github.com/wonny/etfscope/pkg/httputil"
	"github.com/wonny/etfscope/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Env: "test", LogLevel: "error"}
	hc := httputil.New(cfg, logger.NewNop()).DisableRetry()
	return NewClient(hc, logger.NewNop()).WithBaseURLs(srv.URL, srv.URL)
}

const chartBody = `[['날짜', '시가', '고가', '저가', '종가', '거래량', '외국인소진율'],
["20240104", 10100, 10200, 10000, 10150, 5000, 12.3],
["20240102", 10000, 10100, 9900, 10000, 4000, 12.1],
["20240103", 10000, 10100, 9900, 10050, 4500, 12.2],
]`

func TestFetchPriceHistory(t *testing.T) {
	var gotSymbol string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/siseJson.naver", r.URL.Path)
		gotSymbol = r.URL.Query().Get("symbol")
		_, _ = w.Write([]byte(chartBody))
	}))

	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	series, err := c.FetchPriceHistory(context.Background(), "069500.KS", start, end)
	require.NoError(t, err)

	assert.Equal(t, "069500", gotSymbol, "market suffix is stripped")
	require.Len(t, series, 2)
	assert.Equal(t, start, series[0].Date)
	assert.Equal(t, 10050.0, series[0].Close)
	assert.Equal(t, 10150.0, series[1].Close)
}

func TestFetchPriceHistory_Empty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[['날짜', '시가', '고가', '저가', '종가', '거래량']]`))
	}))

	series, err := c.FetchPriceHistory(context.Background(), "999999",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, series.IsEmpty())
}

func TestFetchPrices_StatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.FetchPrices(context.Background(), "069500", time.Now().AddDate(0, -1, 0), time.Now())
	assert.Error(t, err)
}

func TestFetchDisplayName_EUCKR(t *testing.T) {
	page := `<html><body><div class="wrap_company"><h2><a href="#">삼성전자</a></h2></div></body></html>`
	encoded, err := korean.EUCKR.NewEncoder().String(page)
	require.NoError(t, err)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/item/main.naver", r.URL.Path)
		assert.Equal(t, "005930", r.URL.Query().Get("code"))
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
		_, _ = w.Write([]byte(encoded))
	}))

	name, err := c.FetchDisplayName(context.Background(), "005930.KS")
	require.NoError(t, err)
	assert.Equal(t, "삼성전자", name)
}

func TestFetchDisplayName_Missing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><p>no such item</p></body></html>`))
	}))

	_, err := c.FetchDisplayName(context.Background(), "000000")
	assert.Error(t, err)
}

func TestListUniverse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sise/etfItemList.nhn", r.URL.Path)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"resultCode":"success","result":{"etfItemList":[
			{"itemcode":"069500","itemname":"KODEX 200","etfTabCode":1,"nowVal":35000},
			{"itemcode":"","itemname":"broken"},
			{"itemcode":"360750","itemname":"TIGER 미국S&P500","etfTabCode":4}
		]}}`))
	}))

	got, err := c.ListUniverse(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "069500", got[0].Code)
	assert.Equal(t, "TIGER 미국S&P500", got[1].Name)
}

func TestBareCode(t *testing.T) {
	assert.Equal(t, "005930", bareCode("005930.KS"))
	assert.Equal(t, "035720", bareCode(" 035720.KQ "))
	assert.Equal(t, "069500", bareCode("069500"))
}
