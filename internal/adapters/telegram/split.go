package telegram

import "strings"

const messageLimit = 4096

// SplitMessage는 텔레그램 메시지 길이 제한에 맞춰 텍스트를 나눈다.
// 서식 블록이 깨지지 않도록 줄 경계를 우선하고, 한 줄이 제한을 넘으면
// 글자 단위로 자른다.
func SplitMessage(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len([]rune(trimmed)) <= messageLimit {
		return []string{trimmed}
	}

	var parts []string
	var current []rune
	flush := func() {
		chunk := strings.Trim(string(current), "\n")
		if chunk != "" {
			parts = append(parts, chunk)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(trimmed, "\n") {
		lineRunes := []rune(line)
		for len(lineRunes) > messageLimit {
			flush()
			parts = append(parts, string(lineRunes[:messageLimit]))
			lineRunes = lineRunes[messageLimit:]
		}
		if len(current)+len(lineRunes)+1 > messageLimit {
			flush()
		}
		if len(current) > 0 {
			current = append(current, '\n')
		}
		current = append(current, lineRunes...)
	}
	flush()

	if len(parts) == 0 {
		return []string{trimmed}
	}
	return parts
}
