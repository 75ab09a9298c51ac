package domain

import (
	"context"
	"time"
)

// CrawlJobCause는 수집 요청의 출처를 나타낸다.
type CrawlJobCause string

const (
	// CrawlCauseManual — 프론트엔드의 수동 새로고침 요청.
	CrawlCauseManual CrawlJobCause = "manual"
	// CrawlCauseScheduled — 스케줄러의 주기 수집.
	CrawlCauseScheduled CrawlJobCause = "scheduled"
)

// CrawlJob은 수집 작업 한 건을 기술한다.
type CrawlJob struct {
	ID          string         `json:"job_id,omitempty"`
	Cause       CrawlJobCause  `json:"cause"`
	Sources     []PolicySource `json:"sources,omitempty"`
	RequestedAt time.Time      `json:"requested_at"`
}

// CrawlQueue는 수집 작업 큐를 기술한다.
type CrawlQueue interface {
	Enqueue(ctx context.Context, job CrawlJob) error
	Receive(ctx context.Context) (CrawlJob, CrawlAckFunc, error)
}

// CrawlAckFunc는 처리 성공을 확정하거나 재전달을 요청한다.
type CrawlAckFunc func(success bool) error

// CrawlJobStatusRepo는 수집 작업의 멱등 처리를 책임진다.
type CrawlJobStatusRepo interface {
	// EnsureCrawlJob은 처리 시도를 등록하고 완료 여부와 현재 시도 횟수를 반환한다.
	EnsureCrawlJob(ctx context.Context, jobID string) (done bool, attempt int, err error)
	// MarkCrawlJobDone은 작업을 최종 완료로 표시한다.
	MarkCrawlJobDone(ctx context.Context, jobID string) error
}
