package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"boss-assistant/internal/domain"
	"boss-assistant/internal/infra/metrics"
)

// 중소벤처기업부 보도자료 RSS.
const mssFeedURL = "https://www.mss.go.kr/site/smba/foffice/ex/rss/rssView.do?boardtypeSeq=118"

const mssMaxItems = 20

func (s *Set) crawlMSS(ctx context.Context) ([]domain.Policy, error) {
	start := time.Now()
	feed, err := s.feed.ParseURLWithContext(mssFeedURL, ctx)
	metrics.ObserveNetworkRequest("scraper", "mss_feed", "www.mss.go.kr", start, err)
	if err != nil {
		return nil, fmt.Errorf("fetch mss feed: %w", err)
	}
	return policiesFromFeed(feed, s.now()), nil
}

// policiesFromFeed는 RSS 항목을 정책 레코드로 바꾼다. 발행일은 피드가
// 주는 값을 그대로 쓰고, 없으면 수집 당일로 둔다.
func policiesFromFeed(feed *gofeed.Feed, now time.Time) []domain.Policy {
	if feed == nil {
		return nil
	}
	fallback := now.Truncate(24 * time.Hour)
	var policies []domain.Policy
	for _, item := range feed.Items {
		if len(policies) >= mssMaxItems {
			break
		}
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if utf8.RuneCountInString(title) <= 5 || !strings.HasPrefix(link, "http") {
			continue
		}
		published := fallback
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.Truncate(24 * time.Hour)
		}
		publishedAt := published
		policies = append(policies, domain.Policy{
			Title:       title,
			Source:      domain.SourceMSS,
			Category:    "정책",
			Summary:     summaryFromDescription(item.Description),
			URL:         link,
			PublishedAt: &publishedAt,
		})
	}
	return policies
}

// summaryFromDescription은 설명 문구를 한 줄 요약으로 다듬는다.
func summaryFromDescription(description string) string {
	text := strings.TrimSpace(description)
	if text == "" {
		return "중소벤처기업부 보도자료"
	}
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > 200 {
		text = string(runes[:200])
	}
	return text
}
