package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ключи служебного кэша живут в отдельном пространстве, чтобы не
// пересекаться с кэшем айсбрейкеров и счётчиками квоты.
const keyPrefix = "ops:"

// RedisCache реализует domain.Cache через Redis.
// Основной потребитель это дедупликация бюджетных оповещений.
type RedisCache struct {
	client *redis.Client
}

// NewRedis создаёт кэш.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Once выполняет функцию один раз на ключ в пределах ttl.
// Если функция вернула ошибку, ключ снимается и попытку можно повторить.
func (c *RedisCache) Once(key string, ttl time.Duration, fn func() error) error {
	ctx := context.Background()
	acquired, err := c.client.SetNX(ctx, keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}
	if err := fn(); err != nil {
		_ = c.client.Del(ctx, keyPrefix+key).Err()
		return err
	}
	return nil
}

// Set задаёт значение.
func (c *RedisCache) Set(key string, value []byte, ttl time.Duration) error {
	return c.client.Set(context.Background(), keyPrefix+key, value, ttl).Err()
}

// Get возвращает значение.
func (c *RedisCache) Get(key string) ([]byte, error) {
	return c.client.Get(context.Background(), keyPrefix+key).Bytes()
}
