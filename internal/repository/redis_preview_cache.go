package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ PreviewCache = (*redisPreviewCache)(nil)

type redisPreviewCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisPreviewCache создает кеш превью поверх Redis. Ключ - хеш
// канонизированного набора ответов, значение - сгенерированный текст.
func NewRedisPreviewCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) PreviewCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisPreviewCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("PreviewCache"),
	}
}

func (c *redisPreviewCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.redisKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		c.logger.Warn("Preview cache read failed", zap.Error(err))
		return "", fmt.Errorf("preview cache get: %w", err)
	}
	return val, nil
}

func (c *redisPreviewCache) Set(ctx context.Context, key, content string) error {
	if err := c.client.Set(ctx, c.redisKey(key), content, c.ttl).Err(); err != nil {
		c.logger.Warn("Preview cache write failed", zap.Error(err))
		return fmt.Errorf("preview cache set: %w", err)
	}
	return nil
}

func (c *redisPreviewCache) redisKey(key string) string {
	return "memoir:preview:" + key
}
