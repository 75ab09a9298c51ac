package domain

import (
	"context"
	"time"
)

// PolicyRepo는 정책 레코드를 관리한다.
type PolicyRepo interface {
	// UpsertPolicies는 URL 기준으로 저장하거나 갱신한다. 나중 쓰기가 이긴다.
	UpsertPolicies(ctx context.Context, policies []Policy) error
	// ListRecent는 발행일 내림차순으로 최근 N건을 반환한다.
	ListRecent(ctx context.Context, limit int) ([]Policy, error)
	// ListBySource는 특정 출처의 최근 N건을 반환한다.
	ListBySource(ctx context.Context, source PolicySource, limit int) ([]Policy, error)
}

// SubscriberRepo는 알림 수신자를 관리한다.
type SubscriberRepo interface {
	UpsertSubscriber(ctx context.Context, sub Subscriber) (Subscriber, error)
	ListSubscribers(ctx context.Context) ([]Subscriber, error)
}

// Scraper는 모든 출처를 돌며 후보 정책을 수집한다.
// 출처 단위 실패는 빈 목록으로 강등되고 밖으로 전파되지 않는다.
type Scraper interface {
	CrawlAll(ctx context.Context) []Policy
}

// Analyzer는 수집된 항목을 건별로 분석해 분류와 요약을 채운다.
type Analyzer interface {
	AnalyzeBatch(ctx context.Context, policies []Policy) []Policy
}

// Ranker는 프로필 기준으로 정책을 점수화하고 걸러낸다.
type Ranker interface {
	Score(policy Policy, profile UserProfile) int
	Rank(policies []Policy, profile UserProfile, maxCount int) []Policy
}

// QuizGenerator는 OX 퀴즈를 생성한다. 실패 시에는 폴백 문항을 반환하며
// 두 번째 값이 폴백 여부를 알린다.
type QuizGenerator interface {
	Generate(ctx context.Context, policies []Policy) ([]Quiz, bool)
}

// Notifier는 알림 메시지를 전달한다.
type Notifier interface {
	SendAlert(ctx context.Context, chatID int64, text string) error
}

// Cache는 단순 TTL 저장소다.
type Cache interface {
	Once(ctx context.Context, key string, ttl time.Duration, fn func() error) error
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
}
