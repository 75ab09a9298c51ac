package scraper

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"boss-assistant/internal/adapters/ranker"
	"boss-assistant/internal/domain"
	"boss-assistant/internal/infra/metrics"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Set은 모든 출처의 크롤러를 묶는다. 출처 하나가 실패해도 나머지 결과는
// 그대로 반환한다. 실패는 로그로만 남긴다.
type Set struct {
	client *http.Client
	feed   *gofeed.Parser
	log    zerolog.Logger
	now    func() time.Time
}

var _ domain.Scraper = (*Set)(nil)

// New는 크롤러 세트를 만든다.
func New(logger zerolog.Logger) *Set {
	client := &http.Client{Timeout: 15 * time.Second}
	feed := gofeed.NewParser()
	feed.Client = client
	feed.UserAgent = userAgent
	return &Set{
		client: client,
		feed:   feed,
		log:    logger,
		now:    time.Now,
	}
}

// CrawlAll은 모든 출처를 순회하고 URL 기준으로 중복을 제거해 반환한다.
func (s *Set) CrawlAll(ctx context.Context) []domain.Policy {
	sources := []struct {
		name  domain.PolicySource
		crawl func(context.Context) ([]domain.Policy, error)
	}{
		{domain.SourceNaver, s.crawlNaver},
		{domain.SourceShopNews, s.crawlShopNews},
		{domain.SourceMSS, s.crawlMSS},
	}

	var all []domain.Policy
	for _, src := range sources {
		policies, err := src.crawl(ctx)
		if err != nil {
			s.log.Warn().Err(err).Str("source", string(src.name)).Msg("scraper: 출처 수집 실패, 건너뜀")
			continue
		}
		metrics.PoliciesScrapedTotal.WithLabelValues(string(src.name)).Add(float64(len(policies)))
		s.log.Info().Str("source", string(src.name)).Int("count", len(policies)).Msg("scraper: 출처 수집 완료")
		all = append(all, policies...)
	}
	return ranker.DeduplicateByURL(all)
}

func (s *Set) get(ctx context.Context, op, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9")
	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.ObserveNetworkRequest("scraper", op, req.URL.Host, start, err)
	return resp, err
}
