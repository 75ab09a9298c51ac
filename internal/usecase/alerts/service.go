package alerts

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"boss-assistant/internal/adapters/telegram"
	"boss-assistant/internal/domain"
	"boss-assistant/internal/infra/metrics"
)

// Service는 새 정책을 구독자에게 맞춤 알림으로 보낸다.
type Service struct {
	subs     domain.SubscriberRepo
	ranker   domain.Ranker
	notifier domain.Notifier
	log      zerolog.Logger
	maxItems int
}

// New는 알림 서비스를 만든다.
func New(subs domain.SubscriberRepo, ranker domain.Ranker, notifier domain.Notifier, logger zerolog.Logger, maxItems int) *Service {
	if maxItems <= 0 {
		maxItems = 3
	}
	return &Service{subs: subs, ranker: ranker, notifier: notifier, log: logger, maxItems: maxItems}
}

// Dispatch는 구독자마다 프로필 기준 상위 항목을 골라 보낸다.
// 한 명에게 실패해도 나머지 구독자에게는 계속 보낸다.
func (s *Service) Dispatch(ctx context.Context, policies []domain.Policy) error {
	if len(policies) == 0 {
		return nil
	}
	subscribers, err := s.subs.ListSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		return nil
	}

	sent := 0
	for _, sub := range subscribers {
		picked := s.ranker.Rank(policies, sub.Profile, s.maxItems)
		if len(picked) == 0 {
			continue
		}
		text := telegram.FormatAlert(picked, sub.Profile)
		if text == "" {
			continue
		}
		if err := s.notifier.SendAlert(ctx, sub.ChatID, text); err != nil {
			metrics.AlertSendErrorsTotal.Inc()
			s.log.Warn().Err(err).Int64("chat_id", sub.ChatID).Msg("alerts: 발송 실패, 다음 구독자로 진행")
			continue
		}
		sent++
	}
	s.log.Info().Int("subscribers", len(subscribers)).Int("sent", sent).Msg("alerts: 발송 완료")
	return nil
}
