package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"boss-assistant/internal/domain"
	"boss-assistant/internal/infra/metrics"
)

// Postgres는 pgxpool 기반으로 저장소 인터페이스를 구현한다.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.PolicyRepo         = (*Postgres)(nil)
	_ domain.SubscriberRepo     = (*Postgres)(nil)
	_ domain.CrawlJobStatusRepo = (*Postgres)(nil)
)

// NewPostgres는 DB 어댑터를 만든다.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// EnsureSchema는 필요한 테이블을 만든다. 마이그레이션 도구 없이 기동 시 한 번 호출한다.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS policies (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			source TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL UNIQUE,
			published_at TIMESTAMPTZ,
			relevant BOOLEAN NOT NULL DEFAULT true,
			target_industries TEXT[] NOT NULL DEFAULT '{}',
			target_locations TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS policies_published_at_idx ON policies (published_at DESC NULLS LAST)`,
		`CREATE TABLE IF NOT EXISTS subscribers (
			id BIGSERIAL PRIMARY KEY,
			chat_id BIGINT NOT NULL UNIQUE,
			business_type TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			interests TEXT[] NOT NULL DEFAULT '{}',
			business_size TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS crawl_job_statuses (
			job_id TEXT PRIMARY KEY,
			attempts INT NOT NULL DEFAULT 0,
			done_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		start := time.Now()
		_, err := p.pool.Exec(ctx, stmt)
		metrics.ObserveNetworkRequest("postgres", "ensure_schema", "schema", start, err)
		if err != nil {
			return err
		}
	}
	return nil
}

// UpsertPolicies는 URL 기준으로 배치 upsert 한다. 나중 쓰기가 이긴다.
func (p *Postgres) UpsertPolicies(ctx context.Context, policies []domain.Policy) error {
	if len(policies) == 0 {
		return nil
	}
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	batch := &pgx.Batch{}
	for _, policy := range policies {
		batch.Queue(`
INSERT INTO policies (title, source, category, summary, url, published_at, relevant, target_industries, target_locations)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (url) DO UPDATE SET
	title = EXCLUDED.title,
	source = EXCLUDED.source,
	category = EXCLUDED.category,
	summary = EXCLUDED.summary,
	published_at = EXCLUDED.published_at,
	relevant = EXCLUDED.relevant,
	target_industries = EXCLUDED.target_industries,
	target_locations = EXCLUDED.target_locations
`, policy.Title, string(policy.Source), policy.Category, policy.Summary, policy.URL,
			policy.PublishedAt, policy.Relevant,
			textArray(policy.TargetIndustries), textArray(policy.TargetLocations))
	}
	start := time.Now()
	br := p.pool.SendBatch(ctx, batch)
	metrics.ObserveNetworkRequest("postgres", "policies_send_batch", "policies", start, nil)
	defer br.Close()
	for range policies {
		start = time.Now()
		_, err := br.Exec()
		metrics.ObserveNetworkRequest("postgres", "policies_batch_exec", "policies", start, err)
		if err != nil {
			return err
		}
	}
	return nil
}

func textArray(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

const policyColumns = `id, title, source, category, summary, url, published_at, relevant, target_industries, target_locations, created_at`

// ListRecent는 발행일 내림차순으로 최근 N건을 반환한다.
func (p *Postgres) ListRecent(ctx context.Context, limit int) ([]domain.Policy, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+policyColumns+`
FROM policies
ORDER BY published_at DESC NULLS LAST, created_at DESC
LIMIT $1
`, limit)
	metrics.ObserveNetworkRequest("postgres", "policies_list_recent", "policies", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPolicies(rows)
}

// ListBySource는 특정 출처의 최근 N건을 반환한다.
func (p *Postgres) ListBySource(ctx context.Context, source domain.PolicySource, limit int) ([]domain.Policy, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+policyColumns+`
FROM policies
WHERE source = $1
ORDER BY published_at DESC NULLS LAST, created_at DESC
LIMIT $2
`, string(source), limit)
	metrics.ObserveNetworkRequest("postgres", "policies_list_by_source", "policies", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPolicies(rows)
}

func scanPolicies(rows pgx.Rows) ([]domain.Policy, error) {
	var policies []domain.Policy
	for rows.Next() {
		var (
			policy      domain.Policy
			source      string
			publishedAt sql.NullTime
		)
		if err := rows.Scan(&policy.ID, &policy.Title, &source, &policy.Category, &policy.Summary,
			&policy.URL, &publishedAt, &policy.Relevant,
			&policy.TargetIndustries, &policy.TargetLocations, &policy.CreatedAt); err != nil {
			return nil, err
		}
		policy.Source = domain.PolicySource(source)
		if publishedAt.Valid {
			ts := publishedAt.Time
			policy.PublishedAt = &ts
		}
		policies = append(policies, policy)
	}
	return policies, rows.Err()
}

// UpsertSubscriber는 chat_id 기준으로 수신자를 저장하거나 갱신한다.
func (p *Postgres) UpsertSubscriber(ctx context.Context, sub domain.Subscriber) (domain.Subscriber, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var out domain.Subscriber
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO subscribers (chat_id, business_type, location, interests, business_size)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (chat_id) DO UPDATE SET
	business_type = EXCLUDED.business_type,
	location = EXCLUDED.location,
	interests = EXCLUDED.interests,
	business_size = EXCLUDED.business_size,
	updated_at = now()
RETURNING id, chat_id, business_type, location, interests, business_size, created_at, updated_at
`, sub.ChatID, sub.Profile.BusinessType, sub.Profile.Location,
		textArray(sub.Profile.Interests), sub.Profile.BusinessSize).
		Scan(&out.ID, &out.ChatID, &out.Profile.BusinessType, &out.Profile.Location,
			&out.Profile.Interests, &out.Profile.BusinessSize, &out.CreatedAt, &out.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "subscribers_upsert", "subscribers", start, err)
	return out, err
}

// ListSubscribers는 알림 수신자 전체를 반환한다.
func (p *Postgres) ListSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, chat_id, business_type, location, interests, business_size, created_at, updated_at
FROM subscribers
ORDER BY id
`)
	metrics.ObserveNetworkRequest("postgres", "subscribers_list", "subscribers", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []domain.Subscriber
	for rows.Next() {
		var sub domain.Subscriber
		if err := rows.Scan(&sub.ID, &sub.ChatID, &sub.Profile.BusinessType, &sub.Profile.Location,
			&sub.Profile.Interests, &sub.Profile.BusinessSize, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// EnsureCrawlJob은 처리 시도를 등록하고 완료 여부와 현재 시도 횟수를 반환한다.
func (p *Postgres) EnsureCrawlJob(ctx context.Context, jobID string) (bool, int, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var (
		done     sql.NullTime
		attempts int
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO crawl_job_statuses (job_id, attempts, updated_at)
VALUES ($1, 1, now())
ON CONFLICT (job_id) DO UPDATE
    SET attempts = crawl_job_statuses.attempts + 1,
        updated_at = now()
RETURNING done_at, attempts
`, jobID).Scan(&done, &attempts)
	metrics.ObserveNetworkRequest("postgres", "crawl_job_statuses_upsert", "crawl_job_statuses", start, err)
	if err != nil {
		return false, 0, err
	}
	return done.Valid, attempts, nil
}

// MarkCrawlJobDone은 작업을 최종 완료로 표시한다.
func (p *Postgres) MarkCrawlJobDone(ctx context.Context, jobID string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE crawl_job_statuses
SET done_at = COALESCE(done_at, now()),
    updated_at = now()
WHERE job_id = $1
`, jobID)
	metrics.ObserveNetworkRequest("postgres", "crawl_job_statuses_mark_done", "crawl_job_statuses", start, err)
	return err
}
