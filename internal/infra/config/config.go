package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig는 서비스 공통 설정을 기술한다.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`
	RabbitURL string `envconfig:"RABBITMQ_URL"`

	// CrawlAPIKey가 비어 있으면 수집 트리거는 인증 없이 허용된다(시연용).
	CrawlAPIKey string `envconfig:"CRAWL_API_KEY"`

	Gemini struct {
		APIKey  string        `envconfig:"GEMINI_API_KEY"`
		Model   string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
		Timeout time.Duration `envconfig:"GEMINI_TIMEOUT" default:"30s"`
	} `envconfig:""`

	Telegram struct {
		Token string `envconfig:"TG_BOT_TOKEN"`
	} `envconfig:""`

	Limits struct {
		PolicyList      int `envconfig:"POLICY_LIST_LIMIT" default:"20"`
		PersonalizedMax int `envconfig:"PERSONALIZED_MAX_ITEMS" default:"5"`
		CrawlSample     int `envconfig:"CRAWL_SAMPLE_SIZE" default:"10"`
		AlertMax        int `envconfig:"ALERT_MAX_ITEMS" default:"3"`
	} `envconfig:""`

	Queues struct {
		Crawl string `envconfig:"CRAWL_QUEUE_KEY" default:"crawl_jobs"`
	} `envconfig:""`

	Crawl struct {
		Interval time.Duration `envconfig:"CRAWL_INTERVAL" default:"1h"`
	} `envconfig:""`

	CacheTTL struct {
		Policies time.Duration `envconfig:"POLICIES_CACHE_TTL" default:"5m"`
		Quiz     time.Duration `envconfig:"QUIZ_CACHE_TTL" default:"10m"`
	} `envconfig:""`
}

// Load는 환경 변수에서 설정을 읽는다.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("설정을 불러오지 못했습니다: %v", err)
	}
	return cfg
}
