package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"boss-assistant/internal/domain"
)

// 소상공인 키워드의 네이버 뉴스 검색 결과 페이지.
const naverNewsURL = "https://search.naver.com/search.naver?where=news&query=%EC%86%8C%EC%83%81%EA%B3%B5%EC%9D%B8"

const naverMaxItems = 20

func (s *Set) crawlNaver(ctx context.Context) ([]domain.Policy, error) {
	resp, err := s.get(ctx, "naver_news", naverNewsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch naver news: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("naver news: unexpected status %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse naver news: %w", err)
	}
	return parseNaver(doc, s.now()), nil
}

// parseNaver는 검색 결과의 기사 제목 링크를 뽑는다. 발행 시각은 검색
// 페이지에서 신뢰할 수 없어 수집 당일로 기록한다.
func parseNaver(doc *goquery.Document, now time.Time) []domain.Policy {
	published := now.Truncate(24 * time.Hour)
	var policies []domain.Policy
	doc.Find(`a[data-heatmap-target=".tit"]`).Each(func(_ int, sel *goquery.Selection) {
		if len(policies) >= naverMaxItems {
			return
		}
		url, _ := sel.Attr("href")
		title := strings.TrimSpace(sel.Text())
		if utf8.RuneCountInString(title) <= 5 || !strings.HasPrefix(url, "http") {
			return
		}
		policies = append(policies, domain.Policy{
			Title:       title,
			Source:      domain.SourceNaver,
			Category:    "뉴스",
			Summary:     "네이버 뉴스 - 소상공인 관련",
			URL:         url,
			PublishedAt: &published,
		})
	})
	return policies
}
