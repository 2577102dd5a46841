package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/windrose-energy/windrose-engine/pkg/config"
)

// NewRedisClient creates the session-store Redis client and verifies
// connectivity. Returns nil when no host is configured so callers can decide
// whether sessions are required in their deployment.
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
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
