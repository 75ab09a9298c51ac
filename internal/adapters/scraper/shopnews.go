package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"boss-assistant/internal/domain"
)

// 소상공인뉴스 최신 기사 목록.
const shopNewsURL = "https://www.sbiznews.com/news/articleList.html?view_type=sm"

const shopNewsMaxItems = 20

func (s *Set) crawlShopNews(ctx context.Context) ([]domain.Policy, error) {
	resp, err := s.get(ctx, "shopnews_list", shopNewsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch shopnews: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("shopnews: unexpected status %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse shopnews: %w", err)
	}
	return parseShopNews(doc, shopNewsURL, s.now()), nil
}

// parseShopNews는 기사 목록에서 제목 링크를 뽑는다. 언론사 CMS가 바뀌어도
// 버티도록 셀렉터를 여러 개 두고 먼저 걸리는 것을 쓴다.
func parseShopNews(doc *goquery.Document, baseURL string, now time.Time) []domain.Policy {
	selectors := []string{
		".article-list .list-titles a",
		".article-list .titles a",
		".type2 .titles a",
		"section.article-list a.links",
	}

	base, _ := url.Parse(baseURL)
	published := now.Truncate(24 * time.Hour)
	var policies []domain.Policy
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if len(policies) >= shopNewsMaxItems {
				return
			}
			href, _ := sel.Attr("href")
			title := strings.TrimSpace(sel.Text())
			link := resolveLink(base, href)
			if utf8.RuneCountInString(title) <= 5 || link == "" {
				return
			}
			policies = append(policies, domain.Policy{
				Title:       title,
				Source:      domain.SourceShopNews,
				Category:    "뉴스",
				Summary:     "소상공인뉴스 최신 기사",
				URL:         link,
				PublishedAt: &published,
			})
		})
		if len(policies) > 0 {
			break
		}
	}
	return policies
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}
