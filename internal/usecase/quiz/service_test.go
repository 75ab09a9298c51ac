package quiz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"boss-assistant/internal/domain"
)

type fakeRepo struct {
	recent  []domain.Policy
	listErr error
}

func (f *fakeRepo) UpsertPolicies(context.Context, []domain.Policy) error { return nil }
func (f *fakeRepo) ListRecent(context.Context, int) ([]domain.Policy, error) {
	return f.recent, f.listErr
}
func (f *fakeRepo) ListBySource(context.Context, domain.PolicySource, int) ([]domain.Policy, error) {
	return nil, nil
}

type fakeGen struct {
	calls    int
	quizzes  []domain.Quiz
	fallback bool
	seen     []domain.Policy
}

func (f *fakeGen) Generate(_ context.Context, policies []domain.Policy) ([]domain.Quiz, bool) {
	f.calls++
	f.seen = policies
	return f.quizzes, f.fallback
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache { return &memoryCache{items: map[string][]byte{}} }

func (m *memoryCache) Once(_ context.Context, key string, _ time.Duration, fn func() error) error {
	return fn()
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

func TestLatestPassesRecentPolicies(t *testing.T) {
	repo := &fakeRepo{recent: []domain.Policy{{Title: "소상공인 지원금 안내", URL: "https://n/1"}}}
	gen := &fakeGen{quizzes: []domain.Quiz{{Question: "지원금은 신청해야 받을 수 있다?", Answer: true}}}
	svc := New(repo, gen, nil, zerolog.Nop(), 0)

	result := svc.Latest(context.Background())
	if result.Fallback {
		t.Fatalf("정상 생성인데 폴백으로 표시됐습니다")
	}
	if len(gen.seen) != 1 {
		t.Fatalf("최근 정책이 소재로 전달돼야 합니다: %d건", len(gen.seen))
	}
}

func TestLatestRepoErrorStillGenerates(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("connection refused")}
	gen := &fakeGen{quizzes: []domain.Quiz{{Question: "정책자금은 무이자다?", Answer: false}}}
	svc := New(repo, gen, nil, zerolog.Nop(), 0)

	result := svc.Latest(context.Background())
	if len(result.Quizzes) != 1 {
		t.Fatalf("저장소가 죽어도 퀴즈는 나와야 합니다: %d문항", len(result.Quizzes))
	}
	if gen.seen != nil {
		t.Fatalf("소재 없이 생성해야 합니다")
	}
}

func TestLatestCachesNonFallback(t *testing.T) {
	gen := &fakeGen{quizzes: []domain.Quiz{{Question: "카드수수료 우대가 있다?", Answer: true}}}
	svc := New(&fakeRepo{}, gen, newMemoryCache(), zerolog.Nop(), time.Minute)

	svc.Latest(context.Background())
	svc.Latest(context.Background())
	if gen.calls != 1 {
		t.Fatalf("두 번째부터는 캐시를 써야 하는데 생성 %d번", gen.calls)
	}
}

func TestLatestDoesNotCacheFallback(t *testing.T) {
	gen := &fakeGen{quizzes: []domain.Quiz{{Question: "폴백 문항?", Answer: true}}, fallback: true}
	svc := New(&fakeRepo{}, gen, newMemoryCache(), zerolog.Nop(), time.Minute)

	svc.Latest(context.Background())
	result := svc.Latest(context.Background())
	if gen.calls != 2 {
		t.Fatalf("폴백은 캐시되면 안 되는데 생성 %d번", gen.calls)
	}
	if !result.Fallback {
		t.Fatalf("폴백으로 표시돼야 합니다")
	}
}
