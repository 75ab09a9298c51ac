package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"boss-assistant/internal/domain"
	"boss-assistant/internal/infra/gemini"
	"boss-assistant/internal/infra/metrics"
)

const maxQuizzes = 5

// textGenerator는 프롬프트 하나로 텍스트를 받는 최소 계약이다.
type textGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Generator는 최근 정책을 소재로 OX 퀴즈를 만든다. 생성이 어떤 이유로든
// 실패하면 내장 폴백 문항을 내보낸다. 퀴즈 경로에서 에러는 밖으로 나가지 않는다.
type Generator struct {
	gen textGenerator
	log zerolog.Logger
}

var _ domain.QuizGenerator = (*Generator)(nil)

// New는 퀴즈 생성기를 만든다. gen이 nil이면 항상 폴백을 쓴다.
func New(gen textGenerator, logger zerolog.Logger) *Generator {
	return &Generator{gen: gen, log: logger}
}

// Generate는 퀴즈 목록과 폴백 여부를 반환한다.
func (g *Generator) Generate(ctx context.Context, policies []domain.Policy) ([]domain.Quiz, bool) {
	if g.gen == nil {
		metrics.QuizFallbackTotal.Inc()
		return FallbackQuizzes(), true
	}

	raw, err := g.gen.GenerateText(ctx, quizPrompt(policies))
	if err != nil {
		g.log.Warn().Err(err).Msg("quizgen: 생성 실패, 폴백 문항 사용")
		metrics.QuizFallbackTotal.Inc()
		return FallbackQuizzes(), true
	}

	var quizzes []domain.Quiz
	if err := json.Unmarshal([]byte(gemini.StripFences(raw)), &quizzes); err != nil {
		g.log.Warn().Err(err).Msg("quizgen: 응답 파싱 실패, 폴백 문항 사용")
		metrics.QuizFallbackTotal.Inc()
		return FallbackQuizzes(), true
	}
	if len(quizzes) == 0 {
		g.log.Warn().Msg("quizgen: 빈 응답, 폴백 문항 사용")
		metrics.QuizFallbackTotal.Inc()
		return FallbackQuizzes(), true
	}
	if len(quizzes) > maxQuizzes {
		quizzes = quizzes[:maxQuizzes]
	}
	return quizzes, false
}

func quizPrompt(policies []domain.Policy) string {
	var b strings.Builder
	b.WriteString("한국 소상공인 사장님을 위한 OX 퀴즈 5개를 만들어줘.\n")
	b.WriteString("정답이 O(true)인 문항 3개, X(false)인 문항 2개로 구성해.\n\n")
	if len(policies) > 0 {
		b.WriteString("최근 정책 뉴스:\n")
		for i, p := range policies {
			fmt.Fprintf(&b, "%d. %s", i+1, p.Title)
			if p.Summary != "" {
				fmt.Fprintf(&b, " - %s", p.Summary)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(`다음 JSON 배열 형식으로만 답변해. 다른 텍스트는 쓰지 마.
[
  {
    "question": "OX로 답할 수 있는 문제",
    "answer": true,
    "explanation": "정답 해설",
    "tip": "사장님에게 도움이 되는 실전 팁",
    "relatedPolicy": "관련 정책 이름"
  }
]`)
	return b.String()
}
