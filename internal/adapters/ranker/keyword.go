package ranker

import (
	"sort"
	"strings"
	"time"

	"boss-assistant/internal/domain"
)

// DefaultMaxCount는 개인화 결과의 기본 상한이다.
const DefaultMaxCount = 5

// KeywordRanker는 키워드 매칭 기반의 관련성 점수로 정책을 걸러낸다.
// 매칭은 의도적으로 단순한 부분 문자열 비교다. 형태소 분석을 붙이면
// 기존에 문서화된 동작이 달라지므로 그대로 둔다.
type KeywordRanker struct {
	// RecencyWindow 안에 발행된 항목은 점수가 0이어도 살아남는다.
	RecencyWindow time.Duration
	// ExcludeThreshold 이하의 점수는 최근 항목이어도 제외한다.
	ExcludeThreshold int
	// now는 테스트에서 바꿔 끼운다.
	now func() time.Time
}

var _ domain.Ranker = (*KeywordRanker)(nil)

// NewKeyword는 기본 설정의 랭커를 만든다.
func NewKeyword() *KeywordRanker {
	return &KeywordRanker{
		RecencyWindow:    72 * time.Hour,
		ExcludeThreshold: -10,
		now:              time.Now,
	}
}

// Score는 정책 하나의 관련성 점수를 계산한다. 같은 입력에는 항상 같은
// 점수를 돌려주는 전역 함수이며 음수가 될 수 있다.
func (r *KeywordRanker) Score(p domain.Policy, profile domain.UserProfile) int {
	score := 0
	content := strings.ToLower(p.Title) + " " + strings.ToLower(p.Summary)

	// 업종 매칭
	for _, keyword := range industryKeywords[profile.BusinessType] {
		if strings.Contains(content, keyword) {
			score += industryMatchScore
		}
	}

	// 타 지역 배제 (negative filtering)
	if !profile.Nationwide() {
		userLoc := shortRegion(profile.Location)
		if strings.Contains(content, userLoc) {
			score += regionMatchScore
		} else if other := findOtherRegion(content, userLoc); other != "" {
			if !containsAny(content, nationwideKeywords) {
				score += regionMismatch
			}
		}
	}

	// 관심사 매칭
	for _, interest := range profile.Interests {
		if interest == "" {
			continue
		}
		if strings.Contains(content, strings.ToLower(interest)) {
			score += interestMatchScore
		}
	}

	// 공통 키워드
	for _, keyword := range genericKeywords {
		if strings.Contains(content, keyword) {
			score += genericMatchScore
		}
	}

	return score
}

// Rank는 점수 내림차순으로 정렬하고 관련성+최신성 기준으로 걸러
// maxCount건까지 반환한다. 동점은 입력 순서를 유지한다.
func (r *KeywordRanker) Rank(policies []domain.Policy, profile domain.UserProfile, maxCount int) []domain.Policy {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	scored := make([]domain.ScoredPolicy, 0, len(policies))
	for _, p := range policies {
		scored = append(scored, domain.ScoredPolicy{Policy: p, Score: r.Score(p, profile)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	cutoff := r.now().Add(-r.RecencyWindow)
	out := make([]domain.Policy, 0, maxCount)
	for _, sp := range scored {
		if sp.Score <= r.ExcludeThreshold {
			continue
		}
		recent := sp.Policy.PublishedAt != nil && !sp.Policy.PublishedAt.Before(cutoff)
		if sp.Score < 1 && !recent {
			continue
		}
		out = append(out, sp.Policy)
		if len(out) >= maxCount {
			break
		}
	}
	return out
}

// DeduplicateByURL은 같은 URL의 항목 중 첫 번째만 남긴다. 순서는 유지된다.
func DeduplicateByURL(policies []domain.Policy) []domain.Policy {
	seen := make(map[string]struct{}, len(policies))
	out := make([]domain.Policy, 0, len(policies))
	for _, p := range policies {
		if p.URL == "" {
			out = append(out, p)
			continue
		}
		if _, ok := seen[p.URL]; ok {
			continue
		}
		seen[p.URL] = struct{}{}
		out = append(out, p)
	}
	return out
}

// shortRegion은 "대전광역시" → "대전" 처럼 앞 두 글자만 취한다.
func shortRegion(location string) string {
	runes := []rune(strings.TrimSpace(location))
	if len(runes) <= 2 {
		return string(runes)
	}
	return string(runes[:2])
}

// findOtherRegion은 사용자 지역이 아닌 행정구역 명칭이 본문에 명시되어
// 있으면 그 이름을 반환한다.
func findOtherRegion(content, userLoc string) string {
	for _, region := range regions {
		if !strings.Contains(content, region) {
			continue
		}
		if strings.HasPrefix(region, userLoc) || strings.Contains(userLoc, region) {
			continue
		}
		return region
	}
	return ""
}

func containsAny(content string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(content, keyword) {
			return true
		}
	}
	return false
}
