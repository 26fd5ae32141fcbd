package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"conquerx-notifier/internal/domain"
)

// RedisCache реализует domain.Cache через Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

var _ domain.Cache = (*RedisCache)(nil)

// NewRedis создаёт кэш. Ключи получают префикс prefix.
func NewRedis(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Once выполняет функцию, если ключ ещё не задан. При ошибке fn ключ
// удаляется, чтобы следующий вызов мог повторить попытку.
func (c *RedisCache) Once(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	full := c.key(key)
	ok, err := c.client.SetNX(ctx, full, "1", ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := fn(); err != nil {
		_ = c.client.Del(ctx, full).Err()
		return err
	}
	return nil
}

func (c *RedisCache) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}
