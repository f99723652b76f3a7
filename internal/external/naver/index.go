package naver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxIndexPages bounds pagination (KOSPI200 = 20 pages)
const maxIndexPages = 50

var itemCodeRe = regexp.MustCompile(`code=(\d{6})`)

// FetchIndexMembers scrapes the constituents of an index (예: KPI200)
// ⭐ SSOT: 지수 구성종목 수집은 이 함수에서만
func (c *Client) FetchIndexMembers(ctx context.Context, indexCode string) ([]string, error) {
	if indexCode == "" {
		return nil, fmt.Errorf("index code is required")
	}

	seen := make(map[string]bool)
	var codes []string

	for page := 1; page <= maxIndexPages; page++ {
		params := url.Values{}
		params.Set("code", indexCode)
		params.Set("page", strconv.Itoa(page))

		html, err := c.fetchHTML(ctx, "/sise/entryJongmok.naver", params)
		if err != nil {
			return nil, fmt.Errorf("fetch %s page %d: %w", indexCode, page, err)
		}

		pageCodes, hasMore, err := parseIndexPage(html)
		if err != nil {
			return nil, fmt.Errorf("parse %s page %d: %w", indexCode, page, err)
		}

		added := 0
		for _, code := range pageCodes {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
				added++
			}
		}

		c.logger.WithFields(map[string]interface{}{
			"index": indexCode,
			"page":  page,
			"count": added,
		}).Debug("Fetched index page")

		// 마지막 페이지는 이전 페이지를 반복해서 돌려줌
		if !hasMore || added == 0 {
			break
		}
	}

	if len(codes) == 0 {
		return nil, fmt.Errorf("no constituents found for index %s", indexCode)
	}

	c.logger.WithFields(map[string]interface{}{
		"index": indexCode,
		"count": len(codes),
	}).Info("Fetched index members")

	return codes, nil
}

// parseIndexPage extracts stock codes from an entryJongmok page
func parseIndexPage(html string) ([]string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false, err
	}

	var codes []string
	doc.Find("table.type_1 td.ctg a").Each(func(i int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		if m := itemCodeRe.FindStringSubmatch(href); m != nil {
			codes = append(codes, m[1])
		}
	})

	hasMore := doc.Find(".pgRR").Length() > 0
	return codes, hasMore, nil
}
