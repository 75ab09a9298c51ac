package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"boss-assistant/internal/domain"
	"boss-assistant/internal/infra/gemini"
)

// textGenerator는 프롬프트 하나로 텍스트를 받는 최소 계약이다.
type textGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Gemini는 수집 항목을 건별로 분석해 관련성과 분류, 요약을 채운다.
// 분석이 실패한 항목은 버리지 않고 관련 있음으로 간주해 통과시킨다.
type Gemini struct {
	gen         textGenerator
	log         zerolog.Logger
	concurrency int
}

var _ domain.Analyzer = (*Gemini)(nil)

// NewGemini는 분석기를 만든다.
func NewGemini(gen textGenerator, logger zerolog.Logger) *Gemini {
	return &Gemini{gen: gen, log: logger, concurrency: 4}
}

// analysisResult는 모델이 돌려주는 JSON 형식이다.
type analysisResult struct {
	IsRelevant       bool     `json:"isRelevant"`
	Category         string   `json:"category"`
	Summary          string   `json:"summary"`
	TargetIndustries []string `json:"targetIndustries"`
	TargetLocations  []string `json:"targetLocations"`
}

// AnalyzeBatch는 항목을 병렬로 분석하고 입력 순서 그대로 반환한다.
func (g *Gemini) AnalyzeBatch(ctx context.Context, policies []domain.Policy) []domain.Policy {
	out := make([]domain.Policy, len(policies))
	copy(out, policies)

	sem := make(chan struct{}, g.concurrency)
	var wg sync.WaitGroup
	for i := range out {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = g.analyzeOne(ctx, out[i])
		}(i)
	}
	wg.Wait()
	return out
}

func (g *Gemini) analyzeOne(ctx context.Context, policy domain.Policy) domain.Policy {
	raw, err := g.gen.GenerateText(ctx, analysisPrompt(policy))
	if err != nil {
		g.log.Warn().Err(err).Str("url", policy.URL).Msg("analyzer: 분석 실패, 관련 있음으로 통과")
		policy.Relevant = true
		return policy
	}

	var result analysisResult
	if err := json.Unmarshal([]byte(gemini.StripFences(raw)), &result); err != nil {
		g.log.Warn().Err(err).Str("url", policy.URL).Msg("analyzer: 응답 파싱 실패, 관련 있음으로 통과")
		policy.Relevant = true
		return policy
	}

	policy.Relevant = result.IsRelevant
	if result.Category != "" {
		policy.Category = result.Category
	}
	if result.Summary != "" {
		policy.Summary = result.Summary
	}
	policy.TargetIndustries = result.TargetIndustries
	policy.TargetLocations = result.TargetLocations
	return policy
}

func analysisPrompt(policy domain.Policy) string {
	var b strings.Builder
	b.WriteString("다음 뉴스 기사가 한국의 소상공인(자영업자)에게 유용한 정책/지원 정보인지 분석해줘.\n\n")
	fmt.Fprintf(&b, "제목: %s\n", policy.Title)
	if policy.Summary != "" {
		fmt.Fprintf(&b, "요약: %s\n", policy.Summary)
	}
	b.WriteString(`
다음 JSON 형식으로만 답변해. 다른 텍스트는 쓰지 마.
{
  "isRelevant": true 또는 false,
  "category": "지원금" | "대출" | "세금" | "노무" | "위생" | "뉴스" | "정책",
  "summary": "사장님이 이해하기 쉬운 한 문장 요약",
  "targetIndustries": ["해당 업종 목록, 전체 대상이면 빈 배열"],
  "targetLocations": ["해당 지역 목록, 전국 대상이면 빈 배열"]
}`)
	return b.String()
}
