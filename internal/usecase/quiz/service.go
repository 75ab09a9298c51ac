package quiz

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"boss-assistant/internal/domain"
)

const (
	cacheKey      = "quiz:latest"
	recentContext = 10
)

// Service는 OX 퀴즈 유스케이스다. 퀴즈 경로에서는 어떤 실패도 밖으로
// 전파하지 않는다. 저장소가 죽으면 소재 없이 생성하고, 생성이 죽으면
// 폴백 문항을 쓴다.
type Service struct {
	repo     domain.PolicyRepo
	gen      domain.QuizGenerator
	cache    domain.Cache
	log      zerolog.Logger
	cacheTTL time.Duration
}

// New는 퀴즈 서비스를 만든다. cache는 nil이어도 된다.
func New(repo domain.PolicyRepo, gen domain.QuizGenerator, cache domain.Cache, logger zerolog.Logger, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Service{repo: repo, gen: gen, cache: cache, log: logger, cacheTTL: cacheTTL}
}

// Result는 퀴즈 목록과 폴백 여부다.
type Result struct {
	Quizzes  []domain.Quiz `json:"quizzes"`
	Fallback bool          `json:"fallback"`
}

// Latest는 최근 정책을 소재로 퀴즈를 만들어 반환한다.
func (s *Service) Latest(ctx context.Context) Result {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil && len(raw) > 0 {
			var cached Result
			if err := json.Unmarshal(raw, &cached); err == nil && len(cached.Quizzes) > 0 {
				return cached
			}
		}
	}

	policies, err := s.repo.ListRecent(ctx, recentContext)
	if err != nil {
		s.log.Warn().Err(err).Msg("quiz: 정책 조회 실패, 소재 없이 생성")
		policies = nil
	}

	quizzes, fallback := s.gen.Generate(ctx, policies)
	result := Result{Quizzes: quizzes, Fallback: fallback}

	// 폴백 결과는 캐시하지 않는다. 다음 요청이 다시 생성을 시도한다.
	if s.cache != nil && !fallback {
		if raw, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("quiz: 캐시 저장 실패")
			}
		}
	}
	return result
}
