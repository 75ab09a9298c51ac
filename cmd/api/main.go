package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"boss-assistant/internal/adapters/quizgen"
	"boss-assistant/internal/adapters/ranker"
	"boss-assistant/internal/adapters/repo"
	"boss-assistant/internal/adapters/scraper"
	"boss-assistant/internal/domain"
	"boss-assistant/internal/infra/cache"
	"boss-assistant/internal/infra/config"
	"boss-assistant/internal/infra/db"
	"boss-assistant/internal/infra/gemini"
	httpinfra "boss-assistant/internal/infra/http"
	applog "boss-assistant/internal/infra/log"
	"boss-assistant/internal/infra/metrics"
	"boss-assistant/internal/infra/queue"
	policiesusecase "boss-assistant/internal/usecase/policies"
	quizusecase "boss-assistant/internal/usecase/quiz"
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
		logger.Fatal().Err(err).Msg("api: DB 연결 실패")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)
	if err := repoAdapter.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("api: 스키마 준비 실패")
	}

	var cacheAdapter domain.Cache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cacheAdapter = cache.NewRedis(redisClient)
		defer redisClient.Close()
	}

	var geminiClient *gemini.Client
	if cfg.Gemini.APIKey != "" {
		geminiClient, err = gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: Gemini 클라이언트 생성 실패")
		}
		defer geminiClient.Close()
	} else {
		logger.Warn().Msg("api: Gemini 키가 없어 퀴즈는 폴백 문항만 제공")
	}

	var crawlQueue domain.CrawlQueue
	if cfg.RabbitURL != "" {
		rabbit, err := queue.NewRabbitCrawlQueue(cfg.RabbitURL, cfg.Queues.Crawl)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: RabbitMQ 큐 초기화 실패")
		}
		defer rabbit.Close()
		crawlQueue = rabbit
	} else if cfg.RedisAddr != "" {
		crawlQueue = queue.NewRedisCrawlQueue(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.Queues.Crawl)
	}

	rankerAdapter := ranker.NewKeyword()
	policyService := policiesusecase.New(
		scraper.New(logger.With().Str("component", "scraper").Logger()),
		repoAdapter, rankerAdapter,
		logger.With().Str("component", "policies").Logger(),
		policiesusecase.Options{
			Cache:      cacheAdapter,
			CacheTTL:   cfg.CacheTTL.Policies,
			SampleSize: cfg.Limits.CrawlSample,
		})

	var quizGen domain.QuizGenerator
	if geminiClient != nil {
		quizGen = quizgen.New(geminiClient, logger.With().Str("component", "quizgen").Logger())
	} else {
		quizGen = quizgen.New(nil, logger.With().Str("component", "quizgen").Logger())
	}
	quizService := quizusecase.New(repoAdapter, quizGen, cacheAdapter, logger.With().Str("component", "quiz").Logger(), cfg.CacheTTL.Quiz)

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	r := srv.Router

	r.Post("/api/v1/crawl", func(w http.ResponseWriter, req *http.Request) {
		if cfg.CrawlAPIKey != "" && req.Header.Get("X-API-Key") != cfg.CrawlAPIKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		if crawlQueue != nil {
			job := domain.CrawlJob{
				ID:          uuid.NewString(),
				Cause:       domain.CrawlCauseManual,
				RequestedAt: time.Now().UTC(),
			}
			if err := crawlQueue.Enqueue(req.Context(), job); err != nil {
				logger.Error().Err(err).Msg("api: 수집 작업 발행 실패")
				writeError(w, http.StatusInternalServerError, "failed to enqueue crawl job")
				return
			}
			w.WriteHeader(http.StatusAccepted)
			writeJSON(w, map[string]any{"success": true, "job_id": job.ID})
			return
		}

		// 큐가 없으면 동기로 수집한다(시연용 단일 프로세스 구성).
		metrics.CrawlRunsTotal.WithLabelValues(string(domain.CrawlCauseManual)).Inc()
		result, err := policyService.CrawlAndStore(req.Context())
		if err != nil {
			metrics.CrawlErrorsTotal.Inc()
			logger.Error().Err(err).Msg("api: 동기 수집 실패")
			writeError(w, http.StatusInternalServerError, "crawl failed")
			return
		}
		writeJSON(w, map[string]any{
			"success": true,
			"scraped": result.Scraped,
			"stored":  result.Stored,
			"sample":  result.Sample,
		})
	})

	r.Get("/api/v1/policies", func(w http.ResponseWriter, req *http.Request) {
		params := policiesusecase.QueryParams{
			Limit:    cfg.Limits.PolicyList,
			MaxItems: cfg.Limits.PersonalizedMax,
		}
		if raw := req.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				params.Limit = n
			}
		}
		if src := req.URL.Query().Get("source"); src != "" {
			params.Source = domain.PolicySource(src)
		}
		if req.URL.Query().Get("personalized") == "true" {
			params.Personalized = true
			params.Profile = profileFromQuery(req)
		}

		policies, err := policyService.Query(req.Context(), params)
		if err != nil {
			// 읽기 경로는 죽지 않는다. 빈 목록과 안내 문구로 강등한다.
			logger.Error().Err(err).Msg("api: 정책 조회 실패")
			writeJSON(w, map[string]any{
				"success":  false,
				"count":    0,
				"policies": []domain.Policy{},
				"message":  "정책을 불러오지 못했습니다. 잠시 후 다시 시도해주세요.",
			})
			return
		}
		if policies == nil {
			policies = []domain.Policy{}
		}
		writeJSON(w, map[string]any{
			"success":  true,
			"count":    len(policies),
			"policies": policies,
		})
	})

	r.Get("/api/v1/quiz", func(w http.ResponseWriter, req *http.Request) {
		result := quizService.Latest(req.Context())
		writeJSON(w, map[string]any{
			"success":  true,
			"quizzes":  result.Quizzes,
			"fallback": result.Fallback,
		})
	})

	r.Post("/api/v1/subscribers", func(w http.ResponseWriter, req *http.Request) {
		defer req.Body.Close()
		var body subscribeRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.ChatID == 0 {
			writeError(w, http.StatusBadRequest, "chat_id is required")
			return
		}
		sub, err := repoAdapter.UpsertSubscriber(req.Context(), domain.Subscriber{
			ChatID: body.ChatID,
			Profile: domain.UserProfile{
				BusinessType: body.BusinessType,
				Location:     body.Location,
				Interests:    body.Interests,
				BusinessSize: body.BusinessSize,
			},
		})
		if err != nil {
			logger.Error().Err(err).Msg("api: 구독자 저장 실패")
			writeError(w, http.StatusInternalServerError, "failed to save subscriber")
			return
		}
		writeJSON(w, map[string]any{"success": true, "subscriber_id": sub.ID})
	})

	go func() {
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api: 서버가 멈췄습니다")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: 종료 중")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

type subscribeRequest struct {
	ChatID       int64    `json:"chat_id"`
	BusinessType string   `json:"business_type"`
	Location     string   `json:"location"`
	Interests    []string `json:"interests"`
	BusinessSize string   `json:"business_size"`
}

// profileFromQuery는 쿼리 파라미터로 프로필을 조립한다. 비어 있으면 시연용
// 기본 프로필을 쓴다.
func profileFromQuery(req *http.Request) domain.UserProfile {
	q := req.URL.Query()
	profile := domain.UserProfile{
		BusinessType: q.Get("business_type"),
		Location:     q.Get("location"),
		BusinessSize: q.Get("business_size"),
	}
	if raw := q.Get("interests"); raw != "" {
		for _, item := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				profile.Interests = append(profile.Interests, trimmed)
			}
		}
	}
	if profile.BusinessType == "" && profile.Location == "" && len(profile.Interests) == 0 {
		return domain.DefaultProfile
	}
	return profile
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
