package policies

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"boss-assistant/internal/domain"
)

// Service는 정책 수집과 조회 유스케이스를 묶는다.
type Service struct {
	scraper  domain.Scraper
	analyzer domain.Analyzer
	repo     domain.PolicyRepo
	ranker   domain.Ranker
	cache    domain.Cache
	log      zerolog.Logger

	cacheTTL   time.Duration
	sampleSize int
}

// Options는 선택 의존성과 한계값이다.
type Options struct {
	// Analyzer가 nil이면 분석을 건너뛰고 전 항목을 관련 있음으로 저장한다.
	Analyzer domain.Analyzer
	// Cache가 nil이면 조회 캐시를 쓰지 않는다.
	Cache      domain.Cache
	CacheTTL   time.Duration
	SampleSize int
}

// New는 정책 서비스를 만든다.
func New(scraper domain.Scraper, repo domain.PolicyRepo, ranker domain.Ranker, logger zerolog.Logger, opts Options) *Service {
	if opts.SampleSize <= 0 {
		opts.SampleSize = 10
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Service{
		scraper:    scraper,
		analyzer:   opts.Analyzer,
		repo:       repo,
		ranker:     ranker,
		cache:      opts.Cache,
		log:        logger,
		cacheTTL:   opts.CacheTTL,
		sampleSize: opts.SampleSize,
	}
}

// CrawlResult는 수집 한 번의 요약이다.
type CrawlResult struct {
	Scraped int             `json:"scraped"`
	Stored  int             `json:"stored"`
	Sample  []domain.Policy `json:"sample"`
}

// CrawlAndStore는 수집, 분석, 저장을 한 번에 돌린다.
// 출처 실패는 빈 목록으로 강등되지만 저장 실패는 에러로 전파된다.
func (s *Service) CrawlAndStore(ctx context.Context) (CrawlResult, error) {
	scraped := s.scraper.CrawlAll(ctx)
	result := CrawlResult{Scraped: len(scraped)}
	if len(scraped) == 0 {
		s.log.Warn().Msg("policies: 수집 결과가 비었습니다")
		return result, nil
	}

	analyzed := scraped
	if s.analyzer != nil {
		analyzed = s.analyzer.AnalyzeBatch(ctx, scraped)
	} else {
		analyzed = make([]domain.Policy, len(scraped))
		copy(analyzed, scraped)
		for i := range analyzed {
			analyzed[i].Relevant = true
		}
	}

	var relevant []domain.Policy
	for _, policy := range analyzed {
		if policy.Relevant {
			relevant = append(relevant, policy)
		}
	}
	s.log.Info().
		Int("scraped", len(scraped)).
		Int("relevant", len(relevant)).
		Msg("policies: 분석 완료")

	if err := s.repo.UpsertPolicies(ctx, relevant); err != nil {
		return result, fmt.Errorf("store policies: %w", err)
	}
	result.Stored = len(relevant)

	sample := relevant
	if len(sample) > s.sampleSize {
		sample = sample[:s.sampleSize]
	}
	result.Sample = sample
	return result, nil
}

// QueryParams는 정책 조회 조건이다.
type QueryParams struct {
	Limit        int
	Source       domain.PolicySource
	Personalized bool
	Profile      domain.UserProfile
	MaxItems     int
}

// Query는 저장된 정책을 조회한다. 개인화가 켜져 있으면 프로필 기준으로
// 점수화해 상위 MaxItems건만 남긴다.
func (s *Service) Query(ctx context.Context, params QueryParams) ([]domain.Policy, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.MaxItems <= 0 {
		params.MaxItems = 5
	}

	list, err := s.listCached(ctx, params)
	if err != nil {
		return nil, err
	}
	if params.Personalized {
		list = s.ranker.Rank(list, params.Profile, params.MaxItems)
	}
	return list, nil
}

func (s *Service) listCached(ctx context.Context, params QueryParams) ([]domain.Policy, error) {
	key := fmt.Sprintf("policies:recent:%s:%d", params.Source, params.Limit)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil && len(raw) > 0 {
			var cached []domain.Policy
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var (
		list []domain.Policy
		err  error
	)
	if params.Source != "" {
		list, err = s.repo.ListBySource(ctx, params.Source, params.Limit)
	} else {
		list, err = s.repo.ListRecent(ctx, params.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}

	if s.cache != nil && len(list) > 0 {
		if raw, err := json.Marshal(list); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("policies: 캐시 저장 실패")
			}
		}
	}
	return list, nil
}
