package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"boss-assistant/internal/domain"
	"boss-assistant/internal/infra/cache"
	"boss-assistant/internal/infra/config"
	applog "boss-assistant/internal/infra/log"
	"boss-assistant/internal/infra/metrics"
	"boss-assistant/internal/infra/queue"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	var crawlQueue domain.CrawlQueue
	var guard domain.Cache
	switch {
	case cfg.RabbitURL != "":
		rabbit, err := queue.NewRabbitCrawlQueue(cfg.RabbitURL, cfg.Queues.Crawl)
		if err != nil {
			logger.Fatal().Err(err).Msg("scheduler: RabbitMQ 큐 초기화 실패")
		}
		defer rabbit.Close()
		crawlQueue = rabbit
	case cfg.RedisAddr != "":
		crawlQueue = queue.NewRedisCrawlQueue(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.Queues.Crawl)
	default:
		logger.Fatal().Msg("scheduler: 큐 주소가 없습니다 (RABBITMQ_URL 또는 REDIS_ADDR)")
	}
	if cfg.RedisAddr != "" {
		guard = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	logger.Info().Dur("interval", cfg.Crawl.Interval).Msg("scheduler: 시작")

	ticker := time.NewTicker(cfg.Crawl.Interval)
	defer ticker.Stop()

	enqueue := func(now time.Time) {
		job := domain.CrawlJob{
			ID:          uuid.NewString(),
			Cause:       domain.CrawlCauseScheduled,
			RequestedAt: now.UTC(),
		}
		publish := func() error {
			return crawlQueue.Enqueue(ctx, job)
		}

		var err error
		if guard != nil {
			// 스케줄러가 여러 대 떠도 같은 주기에는 한 건만 발행한다.
			slot := fmt.Sprintf("crawl:slot:%s", now.UTC().Truncate(cfg.Crawl.Interval).Format(time.RFC3339))
			err = guard.Once(ctx, slot, cfg.Crawl.Interval, publish)
		} else {
			err = publish()
		}
		if err != nil {
			logger.Error().Err(err).Str("job_id", job.ID).Msg("scheduler: 수집 작업 발행 실패")
			return
		}
		logger.Info().Str("job_id", job.ID).Msg("scheduler: 수집 작업 발행")
	}

	enqueue(time.Now())
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler: 종료")
			return
		case now := <-ticker.C:
			enqueue(now)
		}
	}
}
