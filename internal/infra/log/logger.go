package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger는 설정된 zerolog 인스턴스를 만든다.
func NewLogger(appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "dev" {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
}
