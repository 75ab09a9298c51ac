package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"boss-assistant/internal/adapters/analyzer"
	"boss-assistant/internal/adapters/ranker"
	"boss-assistant/internal/adapters/repo"
	"boss-assistant/internal/adapters/scraper"
	"boss-assistant/internal/adapters/telegram"
	"boss-assistant/internal/domain"
	"boss-assistant/internal/infra/config"
	"boss-assistant/internal/infra/db"
	"boss-assistant/internal/infra/gemini"
	applog "boss-assistant/internal/infra/log"
	"boss-assistant/internal/infra/metrics"
	"boss-assistant/internal/infra/queue"
	alertsusecase "boss-assistant/internal/usecase/alerts"
	policiesusecase "boss-assistant/internal/usecase/policies"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("crawler: DB 연결 실패")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	if err := repoAdapter.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("crawler: 스키마 준비 실패")
	}

	var crawlQueue domain.CrawlQueue
	switch {
	case cfg.RabbitURL != "":
		rabbit, err := queue.NewRabbitCrawlQueue(cfg.RabbitURL, cfg.Queues.Crawl)
		if err != nil {
			logger.Fatal().Err(err).Msg("crawler: RabbitMQ 큐 초기화 실패")
		}
		defer rabbit.Close()
		crawlQueue = rabbit
	case cfg.RedisAddr != "":
		crawlQueue = queue.NewRedisCrawlQueue(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.Queues.Crawl)
	default:
		logger.Fatal().Msg("crawler: 큐 주소가 없습니다 (RABBITMQ_URL 또는 REDIS_ADDR)")
	}

	var analyzerAdapter domain.Analyzer
	if cfg.Gemini.APIKey != "" {
		geminiClient, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Fatal().Err(err).Msg("crawler: Gemini 클라이언트 생성 실패")
		}
		defer geminiClient.Close()
		analyzerAdapter = analyzer.NewGemini(geminiClient, logger.With().Str("component", "analyzer").Logger())
	} else {
		logger.Warn().Msg("crawler: Gemini 키가 없어 분석을 건너뜁니다")
	}

	policyService := policiesusecase.New(
		scraper.New(logger.With().Str("component", "scraper").Logger()),
		repoAdapter,
		ranker.NewKeyword(),
		logger.With().Str("component", "policies").Logger(),
		policiesusecase.Options{
			Analyzer:   analyzerAdapter,
			SampleSize: cfg.Limits.CrawlSample,
		})

	var alertService *alertsusecase.Service
	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram.Token)
		if err != nil {
			logger.Fatal().Err(err).Msg("crawler: 봇 생성 실패")
		}
		alertService = alertsusecase.New(repoAdapter, ranker.NewKeyword(), bot,
			logger.With().Str("component", "alerts").Logger(), cfg.Limits.AlertMax)
	} else {
		logger.Warn().Msg("crawler: 봇 토큰이 없어 알림을 보내지 않습니다")
	}

	worker := &jobWorker{
		log:      logger,
		queue:    crawlQueue,
		statuses: repoAdapter,
		policies: policyService,
		alerts:   alertService,
	}

	logger.Info().Msg("crawler: 큐 처리 시작")
	worker.Run(ctx)
	logger.Info().Msg("crawler: 종료")
}

type jobWorker struct {
	log      zerolog.Logger
	queue    domain.CrawlQueue
	statuses domain.CrawlJobStatusRepo
	policies *policiesusecase.Service
	alerts   *alertsusecase.Service
}

const maxDeliveryAttempts = 5

func (w *jobWorker) Run(ctx context.Context) {
	for {
		job, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.log.Error().Err(err).Msg("crawler: 큐 읽기 실패")
			time.Sleep(time.Second)
			continue
		}

		jobLog := w.log.With().
			Str("job_id", job.ID).
			Str("cause", string(job.Cause)).
			Logger()

		if job.ID == "" {
			jobLog.Error().Msg("crawler: 식별자 없는 작업, 확인 후 건너뜀")
			if err := ack(true); err != nil {
				jobLog.Error().Err(err).Msg("crawler: 작업 확인 실패")
			}
			continue
		}

		done, attempt, err := w.statuses.EnsureCrawlJob(ctx, job.ID)
		if err != nil {
			jobLog.Error().Err(err).Msg("crawler: 작업 등록 실패")
			if ackErr := ack(false); ackErr != nil {
				jobLog.Error().Err(ackErr).Msg("crawler: 작업 반납 실패")
			}
			time.Sleep(time.Second)
			continue
		}

		jobLog = jobLog.With().Int("attempt", attempt).Logger()

		if done {
			jobLog.Info().Msg("crawler: 이미 완료된 작업, 확인만 합니다")
			if err := ack(true); err != nil {
				jobLog.Error().Err(err).Msg("crawler: 완료 작업 확인 실패")
			}
			continue
		}

		succeeded := w.handleJob(ctx, job, jobLog)

		if !succeeded && attempt < maxDeliveryAttempts {
			jobLog.Warn().Msg("crawler: 작업 실패, 나중에 재시도")
			if err := ack(false); err != nil {
				jobLog.Error().Err(err).Msg("crawler: 실패 작업 반납 실패")
			}
			continue
		}
		if !succeeded {
			jobLog.Error().Msg("crawler: 재시도 한도 도달, 완료로 처리")
		}

		if err := w.statuses.MarkCrawlJobDone(ctx, job.ID); err != nil {
			jobLog.Error().Err(err).Msg("crawler: 완료 표시 실패")
			if ackErr := ack(false); ackErr != nil {
				jobLog.Error().Err(ackErr).Msg("crawler: 상태 오류 후 반납 실패")
			}
			time.Sleep(time.Second)
			continue
		}

		if err := ack(true); err != nil {
			jobLog.Error().Err(err).Msg("crawler: 작업 확인 실패")
		}
	}
}

func (w *jobWorker) handleJob(ctx context.Context, job domain.CrawlJob, jobLog zerolog.Logger) bool {
	metrics.CrawlRunsTotal.WithLabelValues(string(job.Cause)).Inc()

	result, err := w.policies.CrawlAndStore(ctx)
	if err != nil {
		metrics.CrawlErrorsTotal.Inc()
		jobLog.Error().Err(err).Msg("crawler: 수집 실패")
		return false
	}
	jobLog.Info().
		Int("scraped", result.Scraped).
		Int("stored", result.Stored).
		Msg("crawler: 수집 완료")

	if w.alerts != nil && len(result.Sample) > 0 {
		if err := w.alerts.Dispatch(ctx, result.Sample); err != nil {
			// 알림 실패는 수집을 되돌리지 않는다.
			jobLog.Error().Err(err).Msg("crawler: 알림 발송 실패")
		}
	}
	return true
}
