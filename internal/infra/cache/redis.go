package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"boss-assistant/internal/domain"
)

// RedisCache는 domain.Cache를 Redis로 구현한다.
type RedisCache struct {
	client *redis.Client
}

var _ domain.Cache = (*RedisCache)(nil)

// NewRedis는 캐시를 만든다.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Once는 키가 아직 없을 때만 fn을 실행한다. fn이 실패하면 키를 지워
// 다음 호출이 다시 시도할 수 있게 한다.
func (c *RedisCache) Once(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	ok, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := fn(); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return err
	}
	return nil
}

// Set은 값을 저장한다.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Get은 값을 읽는다. 키가 없으면 redis.Nil을 반환한다.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	return c.client.Get(ctx, key).Bytes()
}
