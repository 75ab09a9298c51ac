package ranker

import (
	"fmt"
	"testing"
	"time"

	"boss-assistant/internal/domain"
)

func testRanker(now time.Time) *KeywordRanker {
	r := NewKeyword()
	r.now = func() time.Time { return now }
	return r
}

func datePtr(t time.Time) *time.Time { return &t }

func TestScoreIsDeterministic(t *testing.T) {
	r := NewKeyword()
	p := domain.Policy{Title: "인천 소상공인 지원금 신청 안내"}
	profile := domain.DefaultProfile
	first := r.Score(p, profile)
	for i := 0; i < 10; i++ {
		if got := r.Score(p, profile); got != first {
			t.Fatalf("점수가 흔들립니다: %d != %d", got, first)
		}
	}
}

func TestScoreEndToEnd(t *testing.T) {
	r := NewKeyword()
	p := domain.Policy{Title: "인천 소상공인 지원금 신청 안내", Source: domain.SourceNaver}
	profile := domain.UserProfile{
		BusinessType: "음식점",
		Location:     "인천",
		Interests:    []string{"지원금"},
	}
	// 지역 +5, 관심사 +2, 공통 키워드(소상공인/지원/신청) +3
	if got := r.Score(p, profile); got != 10 {
		t.Fatalf("점수 10을 기대했지만 %d", got)
	}
}

func TestScoreUsesShortRegionCode(t *testing.T) {
	r := NewKeyword()
	p := domain.Policy{Title: "대전 소상공인 교육 프로그램"}
	profile := domain.UserProfile{BusinessType: "서비스업", Location: "대전광역시"}
	if got := r.Score(p, profile); got < 5 {
		t.Fatalf("지역 가산점을 기대했지만 점수 %d", got)
	}
}

func TestScoreRegionalMismatchPenalty(t *testing.T) {
	r := NewKeyword()
	p := domain.Policy{Title: "부산 소상공인 지원금 신청 안내"}
	profile := domain.UserProfile{
		BusinessType: "음식점",
		Location:     "인천",
		Interests:    []string{"지원금"},
	}
	if got := r.Score(p, profile); got > -10 {
		t.Fatalf("타 지역 감점을 기대했지만 점수 %d", got)
	}
}

func TestScoreNationwideKeywordSkipsPenalty(t *testing.T) {
	r := NewKeyword()
	p := domain.Policy{Title: "정부, 부산 등 전국 소상공인 지원 확대"}
	profile := domain.UserProfile{BusinessType: "음식점", Location: "인천"}
	if got := r.Score(p, profile); got < 0 {
		t.Fatalf("전국 대상 키워드가 있으면 감점이 없어야 하는데 점수 %d", got)
	}
}

func TestScoreGenericKeyword(t *testing.T) {
	r := NewKeyword()
	p := domain.Policy{Title: "새로운 지원 프로그램"}
	profile := domain.UserProfile{Location: domain.NationwideLocation}
	if got := r.Score(p, profile); got < 1 {
		t.Fatalf("공통 키워드 가산점을 기대했지만 점수 %d", got)
	}
}

func TestRankExcludesMismatchedRegion(t *testing.T) {
	now := time.Now()
	r := testRanker(now)
	policies := []domain.Policy{
		{Title: "부산 소상공인 지원금 신청", URL: "https://n/1", PublishedAt: datePtr(now)},
		{Title: "인천 소상공인 지원금 신청", URL: "https://n/2", PublishedAt: datePtr(now)},
	}
	profile := domain.UserProfile{BusinessType: "음식점", Location: "인천", Interests: []string{"지원금"}}
	out := r.Rank(policies, profile, 5)
	if len(out) != 1 {
		t.Fatalf("1건을 기대했지만 %d건", len(out))
	}
	if out[0].URL != "https://n/2" {
		t.Fatalf("인천 항목이 남아야 하는데 %s", out[0].URL)
	}
}

func TestRankRecencyOverride(t *testing.T) {
	now := time.Now()
	r := testRanker(now)
	profile := domain.UserProfile{Location: domain.NationwideLocation}
	fresh := domain.Policy{Title: "오늘의 날씨", URL: "https://n/fresh", PublishedAt: datePtr(now)}
	stale := domain.Policy{Title: "지난주 날씨", URL: "https://n/stale", PublishedAt: datePtr(now.AddDate(0, 0, -10))}

	out := r.Rank([]domain.Policy{fresh, stale}, profile, 5)
	if len(out) != 1 {
		t.Fatalf("1건을 기대했지만 %d건", len(out))
	}
	if out[0].URL != fresh.URL {
		t.Fatalf("최근 항목이 살아남아야 하는데 %s", out[0].URL)
	}
}

func TestRankTruncates(t *testing.T) {
	now := time.Now()
	r := testRanker(now)
	profile := domain.UserProfile{Location: domain.NationwideLocation}
	var policies []domain.Policy
	for i := 0; i < 20; i++ {
		policies = append(policies, domain.Policy{
			Title:       fmt.Sprintf("소상공인 지원 안내 %d", i),
			URL:         fmt.Sprintf("https://n/%d", i),
			PublishedAt: datePtr(now),
		})
	}
	out := r.Rank(policies, profile, 5)
	if len(out) != 5 {
		t.Fatalf("5건으로 잘려야 하는데 %d건", len(out))
	}
}

func TestRankStableTieBreak(t *testing.T) {
	now := time.Now()
	r := testRanker(now)
	profile := domain.UserProfile{Location: domain.NationwideLocation}
	policies := []domain.Policy{
		{Title: "지원 사업 A", URL: "https://n/a"},
		{Title: "지원 사업 B", URL: "https://n/b"},
		{Title: "지원 사업 C", URL: "https://n/c"},
	}
	out := r.Rank(policies, profile, 5)
	if len(out) != 3 {
		t.Fatalf("3건을 기대했지만 %d건", len(out))
	}
	for i, want := range []string{"https://n/a", "https://n/b", "https://n/c"} {
		if out[i].URL != want {
			t.Fatalf("동점 순서가 깨졌습니다: %d번째가 %s", i, out[i].URL)
		}
	}
}

func TestDeduplicateByURL(t *testing.T) {
	policies := []domain.Policy{
		{Title: "첫 번째", URL: "https://n/1"},
		{Title: "중복", URL: "https://n/1"},
		{Title: "두 번째", URL: "https://n/2"},
	}
	out := DeduplicateByURL(policies)
	if len(out) != 2 {
		t.Fatalf("2건을 기대했지만 %d건", len(out))
	}
	if out[0].Title != "첫 번째" {
		t.Fatalf("첫 등장 항목이 남아야 하는데 %q", out[0].Title)
	}
}
