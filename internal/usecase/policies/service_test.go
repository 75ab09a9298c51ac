package policies

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"boss-assistant/internal/adapters/ranker"
	"boss-assistant/internal/domain"
)

type fakeScraper struct {
	policies []domain.Policy
}

func (f *fakeScraper) CrawlAll(context.Context) []domain.Policy { return f.policies }

type fakeAnalyzer struct {
	mark func(domain.Policy) domain.Policy
}

func (f *fakeAnalyzer) AnalyzeBatch(_ context.Context, policies []domain.Policy) []domain.Policy {
	out := make([]domain.Policy, len(policies))
	for i, p := range policies {
		out[i] = f.mark(p)
	}
	return out
}

type fakeRepo struct {
	mu     sync.Mutex
	stored []domain.Policy
	recent []domain.Policy

	upsertErr error
	listErr   error
	listCalls int
}

func (f *fakeRepo) UpsertPolicies(_ context.Context, policies []domain.Policy) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, policies...)
	return nil
}

func (f *fakeRepo) ListRecent(_ context.Context, limit int) ([]domain.Policy, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > len(f.recent) {
		limit = len(f.recent)
	}
	return f.recent[:limit], nil
}

func (f *fakeRepo) ListBySource(_ context.Context, source domain.PolicySource, limit int) ([]domain.Policy, error) {
	f.listCalls++
	var out []domain.Policy
	for _, p := range f.recent {
		if p.Source == source && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache { return &memoryCache{items: map[string][]byte{}} }

func (m *memoryCache) Once(_ context.Context, key string, _ time.Duration, fn func() error) error {
	m.mu.Lock()
	_, exists := m.items[key]
	if !exists {
		m.items[key] = []byte("1")
	}
	m.mu.Unlock()
	if exists {
		return nil
	}
	if err := fn(); err != nil {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.items[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func TestCrawlAndStoreFiltersIrrelevant(t *testing.T) {
	scraper := &fakeScraper{policies: []domain.Policy{
		{Title: "소상공인 지원금 안내", URL: "https://n/1"},
		{Title: "연예인 결혼 소식", URL: "https://n/2"},
	}}
	analyzer := &fakeAnalyzer{mark: func(p domain.Policy) domain.Policy {
		p.Relevant = p.URL == "https://n/1"
		return p
	}}
	repo := &fakeRepo{}
	svc := New(scraper, repo, ranker.NewKeyword(), zerolog.Nop(), Options{Analyzer: analyzer})

	result, err := svc.CrawlAndStore(context.Background())
	if err != nil {
		t.Fatalf("에러가 없어야 합니다: %v", err)
	}
	if result.Scraped != 2 || result.Stored != 1 {
		t.Fatalf("수집 2건 저장 1건을 기대했지만 %d/%d", result.Scraped, result.Stored)
	}
	if len(repo.stored) != 1 || repo.stored[0].URL != "https://n/1" {
		t.Fatalf("관련 항목만 저장돼야 합니다: %v", repo.stored)
	}
}

func TestCrawlAndStoreWithoutAnalyzerKeepsAll(t *testing.T) {
	scraper := &fakeScraper{policies: []domain.Policy{
		{Title: "소상공인 지원금 안내", URL: "https://n/1"},
		{Title: "연예인 결혼 소식", URL: "https://n/2"},
	}}
	repo := &fakeRepo{}
	svc := New(scraper, repo, ranker.NewKeyword(), zerolog.Nop(), Options{})

	result, err := svc.CrawlAndStore(context.Background())
	if err != nil {
		t.Fatalf("에러가 없어야 합니다: %v", err)
	}
	if result.Stored != 2 {
		t.Fatalf("분석기가 없으면 전부 저장돼야 합니다: %d", result.Stored)
	}
}

func TestCrawlAndStorePropagatesStoreError(t *testing.T) {
	scraper := &fakeScraper{policies: []domain.Policy{{Title: "소상공인 지원금 안내", URL: "https://n/1"}}}
	repo := &fakeRepo{upsertErr: errors.New("connection refused")}
	svc := New(scraper, repo, ranker.NewKeyword(), zerolog.Nop(), Options{})

	if _, err := svc.CrawlAndStore(context.Background()); err == nil {
		t.Fatalf("저장 실패는 에러로 전파돼야 합니다")
	}
}

func TestCrawlAndStoreEmptyScrapeIsNotError(t *testing.T) {
	svc := New(&fakeScraper{}, &fakeRepo{}, ranker.NewKeyword(), zerolog.Nop(), Options{})
	result, err := svc.CrawlAndStore(context.Background())
	if err != nil {
		t.Fatalf("빈 수집은 에러가 아니어야 합니다: %v", err)
	}
	if result.Scraped != 0 || result.Stored != 0 {
		t.Fatalf("0/0을 기대했지만 %d/%d", result.Scraped, result.Stored)
	}
}

func TestCrawlAndStoreSampleIsCapped(t *testing.T) {
	var many []domain.Policy
	for i := 0; i < 15; i++ {
		many = append(many, domain.Policy{Title: "소상공인 지원 안내", URL: fmt.Sprintf("https://n/%d", i)})
	}
	svc := New(&fakeScraper{policies: many}, &fakeRepo{}, ranker.NewKeyword(), zerolog.Nop(), Options{SampleSize: 10})

	result, err := svc.CrawlAndStore(context.Background())
	if err != nil {
		t.Fatalf("에러가 없어야 합니다: %v", err)
	}
	if len(result.Sample) != 10 {
		t.Fatalf("표본은 10건이어야 하는데 %d건", len(result.Sample))
	}
}

func TestQueryPersonalized(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{recent: []domain.Policy{
		{Title: "부산 소상공인 지원금", URL: "https://n/1", PublishedAt: &now},
		{Title: "인천 소상공인 지원금", URL: "https://n/2", PublishedAt: &now},
	}}
	svc := New(&fakeScraper{}, repo, ranker.NewKeyword(), zerolog.Nop(), Options{})

	out, err := svc.Query(context.Background(), QueryParams{
		Personalized: true,
		Profile:      domain.UserProfile{BusinessType: "음식점", Location: "인천", Interests: []string{"지원금"}},
	})
	if err != nil {
		t.Fatalf("에러가 없어야 합니다: %v", err)
	}
	if len(out) != 1 || out[0].URL != "https://n/2" {
		t.Fatalf("인천 항목만 남아야 합니다: %v", out)
	}
}

func TestQueryUsesCache(t *testing.T) {
	now := time.Now()
	repo := &fakeRepo{recent: []domain.Policy{{Title: "소상공인 지원금 안내", URL: "https://n/1", PublishedAt: &now}}}
	svc := New(&fakeScraper{}, repo, ranker.NewKeyword(), zerolog.Nop(), Options{Cache: newMemoryCache()})

	for i := 0; i < 3; i++ {
		if _, err := svc.Query(context.Background(), QueryParams{Limit: 1}); err != nil {
			t.Fatalf("에러가 없어야 합니다: %v", err)
		}
	}
	if repo.listCalls != 1 {
		t.Fatalf("두 번째부터는 캐시를 써야 하는데 DB 조회 %d번", repo.listCalls)
	}
}

func TestQueryBySource(t *testing.T) {
	repo := &fakeRepo{recent: []domain.Policy{
		{Title: "네이버 기사", URL: "https://n/1", Source: domain.SourceNaver},
		{Title: "부처 보도자료", URL: "https://n/2", Source: domain.SourceMSS},
	}}
	svc := New(&fakeScraper{}, repo, ranker.NewKeyword(), zerolog.Nop(), Options{})

	out, err := svc.Query(context.Background(), QueryParams{Source: domain.SourceMSS})
	if err != nil {
		t.Fatalf("에러가 없어야 합니다: %v", err)
	}
	if len(out) != 1 || out[0].Source != domain.SourceMSS {
		t.Fatalf("출처 필터가 동작해야 합니다: %v", out)
	}
}

func TestQueryListErrorPropagates(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("connection refused")}
	svc := New(&fakeScraper{}, repo, ranker.NewKeyword(), zerolog.Nop(), Options{})
	if _, err := svc.Query(context.Background(), QueryParams{}); err == nil {
		t.Fatalf("조회 실패는 에러로 전파돼야 합니다")
	}
}
