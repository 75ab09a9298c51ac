package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"boss-assistant/internal/domain"
	"boss-assistant/internal/infra/metrics"
)

// Bot은 텔레그램 Bot API로 알림을 보낸다.
type Bot struct {
	api *tgbotapi.BotAPI
}

var _ domain.Notifier = (*Bot)(nil)

// NewBot은 토큰으로 봇 클라이언트를 만든다.
func NewBot(token string) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram: token is empty")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return &Bot{api: api}, nil
}

// SendAlert는 텍스트를 길이 제한에 맞게 쪼개어 순서대로 보낸다.
func (b *Bot) SendAlert(ctx context.Context, chatID int64, text string) error {
	for _, part := range SplitMessage(text) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, part)
		msg.DisableWebPagePreview = true
		start := time.Now()
		_, err := b.api.Send(msg)
		metrics.ObserveNetworkRequest("telegram", "send_message", "bot_api", start, err)
		if err != nil {
			return fmt.Errorf("telegram: send message: %w", err)
		}
	}
	return nil
}
