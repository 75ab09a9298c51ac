package quizgen

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"boss-assistant/internal/domain"
)

//go:embed fallback_quizzes.yaml
var fallbackRaw []byte

type fallbackFile struct {
	Version int           `yaml:"version"`
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

var fallbackQuizzes = mustLoadFallback()

func mustLoadFallback() []domain.Quiz {
	var file fallbackFile
	if err := yaml.Unmarshal(fallbackRaw, &file); err != nil {
		panic(fmt.Sprintf("quizgen: broken fallback asset: %v", err))
	}
	if len(file.Quizzes) == 0 {
		panic("quizgen: fallback asset has no quizzes")
	}
	return file.Quizzes
}

// FallbackQuizzes는 내장 폴백 문항의 복사본을 반환한다.
func FallbackQuizzes() []domain.Quiz {
	out := make([]domain.Quiz, len(fallbackQuizzes))
	copy(out, fallbackQuizzes)
	return out
}
