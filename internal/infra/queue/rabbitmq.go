package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"boss-assistant/internal/domain"
	"boss-assistant/internal/infra/metrics"
)

// RabbitCrawlQueue는 수집 작업 큐를 RabbitMQ 위에 구현한다.
type RabbitCrawlQueue struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	deliveries <-chan amqp.Delivery
}

var _ domain.CrawlQueue = (*RabbitCrawlQueue)(nil)

// NewRabbitCrawlQueue는 AMQP URL로 접속해 내구성 큐를 선언한다.
func NewRabbitCrawlQueue(amqpURL, queue string) (*RabbitCrawlQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitCrawlQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue는 작업을 큐에 발행한다.
func (q *RabbitCrawlQueue) Enqueue(ctx context.Context, job domain.CrawlJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Receive는 작업 하나를 블로킹으로 읽는다. 반환된 ack로 성공을 확정하거나
// 재전달을 요청한다.
func (q *RabbitCrawlQueue) Receive(ctx context.Context) (domain.CrawlJob, domain.CrawlAckFunc, error) {
	if q.deliveries == nil {
		deliveries, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
		if err != nil {
			return domain.CrawlJob{}, nil, fmt.Errorf("consume queue: %w", err)
		}
		q.deliveries = deliveries
	}
	select {
	case <-ctx.Done():
		return domain.CrawlJob{}, nil, ctx.Err()
	case delivery, ok := <-q.deliveries:
		if !ok {
			return domain.CrawlJob{}, nil, errors.New("rabbitmq: delivery channel closed")
		}
		var job domain.CrawlJob
		if err := json.Unmarshal(delivery.Body, &job); err != nil {
			_ = delivery.Nack(false, false)
			return domain.CrawlJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return delivery.Ack(false)
			}
			return delivery.Nack(false, true)
		}
		return job, ack, nil
	}
}

// Close는 채널과 연결을 닫는다.
func (q *RabbitCrawlQueue) Close() error {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
