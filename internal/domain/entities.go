package domain

import "time"

// PolicySource는 정책 뉴스의 수집 출처를 나타낸다.
type PolicySource string

const (
	// SourceNaver 네이버 뉴스 검색.
	SourceNaver PolicySource = "naver"
	// SourceShopNews 소상공인뉴스.
	SourceShopNews PolicySource = "shopnews"
	// SourceMSS 중소벤처기업부 보도자료.
	SourceMSS PolicySource = "mss"
)

// Policy는 수집된 정책/뉴스 레코드를 나타낸다. URL이 중복 제거와 upsert의 키다.
type Policy struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	Source           PolicySource `json:"source"`
	Category         string       `json:"category"`
	Summary          string       `json:"summary"`
	URL              string       `json:"url"`
	PublishedAt      *time.Time   `json:"publishedAt,omitempty"`
	Relevant         bool         `json:"-"`
	TargetIndustries []string     `json:"targetIndustries,omitempty"`
	TargetLocations  []string     `json:"targetLocations,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// NationwideLocation은 지역 제한 없음을 뜻하는 센티널 값이다.
const NationwideLocation = "전국"

// UserProfile은 온보딩에서 만들어지는 사용자 선호 정보다.
// 점수 계산에서는 읽기 전용이며 서버에는 저장하지 않는다.
type UserProfile struct {
	BusinessType string
	Location     string
	Interests    []string
	BusinessSize string
}

// Nationwide는 지역 제한이 없는 프로필인지 여부를 반환한다.
func (p UserProfile) Nationwide() bool {
	return p.Location == "" || p.Location == NationwideLocation
}

// DefaultProfile은 온보딩을 건너뛴 시연용 기본 프로필이다.
var DefaultProfile = UserProfile{
	BusinessType: "음식점",
	Location:     "인천",
	Interests:    []string{"지원금", "대출", "세제 혜택", "위생"},
	BusinessSize: "5인 미만",
}

// ScoredPolicy는 점수 계산 한 번에서만 쓰이는 (정책, 점수) 쌍이다.
type ScoredPolicy struct {
	Policy Policy
	Score  int
}

// Quiz는 OX 퀴즈 한 문항이다.
type Quiz struct {
	Question      string `json:"question" yaml:"question"`
	Answer        bool   `json:"answer" yaml:"answer"`
	Explanation   string `json:"explanation" yaml:"explanation"`
	Tip           string `json:"tip" yaml:"tip"`
	RelatedPolicy string `json:"relatedPolicy" yaml:"related_policy"`
}

// Subscriber는 텔레그램 알림 수신자다. ChatID가 upsert 키다.
type Subscriber struct {
	ID        int64
	ChatID    int64
	Profile   UserProfile
	CreatedAt time.Time
	UpdatedAt time.Time
}
