package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
)

// RedisCacheConfig Redis 回答缓存配置。
type RedisCacheConfig struct {
	// TTL 缓存过期时间，作为 Redis 键的过期时间。
	TTL time.Duration
	// KeyPrefix 缓存键前缀。
	KeyPrefix string
}

// RedisCache 基于 Redis 的回答缓存，过期由 Redis 负责。
type RedisCache struct {
	redis  goredis.UniversalClient
	config RedisCacheConfig
}

var _ AnswerCache = (*RedisCache)(nil)

// NewRedisCache 创建 Redis 回答缓存。
func NewRedisCache(client goredis.UniversalClient, config RedisCacheConfig) *RedisCache {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rag:answer:"
	}
	if config.TTL <= 0 {
		config.TTL = time.Hour
	}
	return &RedisCache{redis: client, config: config}
}

// Name 返回缓存后端名称。
func (c *RedisCache) Name() string {
	return "redis"
}

func (c *RedisCache) key(fingerprint string) string {
	return c.config.KeyPrefix + fingerprint
}

// Lookup 实现 AnswerCache。
func (c *RedisCache) Lookup(ctx context.Context, fingerprint string) (string, bool, error) {
	answer, err := c.redis.Get(ctx, c.key(fingerprint)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return answer, true, nil
}

// Store 实现 AnswerCache。
func (c *RedisCache) Store(ctx context.Context, fingerprint, answer string) error {
	if err := c.redis.Set(ctx, c.key(fingerprint), answer, c.config.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear 使用 SCAN 删除前缀下的所有键。
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()

	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}

	logger.Infow("cleared answer cache", "deleted_count", deleted)
	return nil
}

// Len 使用 SCAN 统计前缀下的键数量。
func (c *RedisCache) Len(ctx context.Context) (int, error) {
	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()

	count := 0
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return count, nil
}
