package telegram

import (
	"fmt"
	"strings"

	"boss-assistant/internal/domain"
)

var categoryEmoji = map[string]string{
	"지원금": "💰",
	"대출":  "🏦",
	"세금":  "📋",
	"노무":  "👥",
	"위생":  "🧹",
	"뉴스":  "📰",
	"정책":  "📢",
}

const defaultEmoji = "📌"

// FormatAlert는 구독자 프로필에 맞춘 알림 본문을 만든다.
// 정책 한 건이 한 블록이며 제목, 요약, 링크 순으로 쌓인다.
func FormatAlert(policies []domain.Policy, profile domain.UserProfile) string {
	if len(policies) == 0 {
		return ""
	}
	businessType := profile.BusinessType
	if businessType == "" {
		businessType = "소상공인"
	}

	var b strings.Builder
	for i, policy := range policies {
		if i > 0 {
			b.WriteString("\n\n")
		}
		emoji := categoryEmoji[policy.Category]
		if emoji == "" {
			emoji = defaultEmoji
		}
		fmt.Fprintf(&b, "%s [%s 사장님 맞춤] %s", emoji, businessType, policy.Title)
		if policy.Summary != "" {
			b.WriteString("\n")
			b.WriteString(policy.Summary)
		}
		if policy.URL != "" {
			b.WriteString("\n")
			b.WriteString(policy.URL)
		}
	}
	return b.String()
}
