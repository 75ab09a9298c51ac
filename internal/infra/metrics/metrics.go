package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	CrawlRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_runs_total",
		Help: "수집 사이클 실행 횟수",
	}, []string{"cause"})

	CrawlErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawl_errors_total",
		Help: "수집 사이클 실패 횟수",
	})

	PoliciesScrapedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "policies_scraped_total",
		Help: "출처별 수집된 정책 건수",
	}, []string{"source"})

	QuizFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_fallback_total",
		Help: "퀴즈 생성이 폴백 세트로 대체된 횟수",
	})

	AlertSendErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alert_send_errors_total",
		Help: "텔레그램 알림 전송 실패 횟수",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "외부 요청 처리 시간",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30, 60, 120},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "외부 요청 횟수",
	}, []string{"component", "operation", "target", "status"})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_generation_duration_seconds",
		Help:    "LLM 응답 생성 시간",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "LLM이 사용한 토큰 수",
	}, []string{"model", "type"})
)

// MustRegister는 메트릭을 등록한다.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		CrawlRunsTotal,
		CrawlErrorsTotal,
		PoliciesScrapedTotal,
		QuizFallbackTotal,
		AlertSendErrorsTotal,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LLMGenerationDuration,
		LLMTokensTotal,
	)
}

// StartServer는 /metrics 엔드포인트를 가진 HTTP 서버를 띄운다.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest는 외부 요청의 길이와 상태를 기록한다.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveLLMGeneration은 LLM 호출의 길이와 토큰 사용량을 기록한다.
func ObserveLLMGeneration(model string, duration time.Duration, promptTokens, completionTokens, totalTokens int) {
	if model == "" {
		model = "unknown"
	}
	LLMGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if promptTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	if totalTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
}
