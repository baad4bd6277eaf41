package naver

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FetchDisplayName implements contracts.NameSource by scraping the item page header
func (c *Client) FetchDisplayName(ctx context.Context, identifier string) (string, error) {
	code := bareCode(identifier)
	body, err := c.fetchBody(ctx, c.baseURL, "/item/main.naver", url.Values{"code": {code}})
	if err != nil {
		return "", err
	}

	name, err := parseItemName(body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", code, err)
	}
	return name, nil
}

// parseItemName extracts the company/ETF name from an item main page
func parseItemName(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	// 종목명: <div class="wrap_company"><h2><a>삼성전자</a></h2>
	name := strings.TrimSpace(doc.Find("div.wrap_company h2 a").First().Text())
	if name == "" {
		name = strings.TrimSpace(doc.Find("div.wrap_company h2").First().Text())
	}
	if name == "" {
		return "", fmt.Errorf("item name not found")
	}
	return name, nil
}
