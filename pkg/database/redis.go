package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/config"
)

// NewRedisClient creates a Redis client for the search-result cache.
// Returns nil (not an error) when Redis is not configured; callers fall back
// to the in-process cache.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return client, nil
}
