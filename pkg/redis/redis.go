// Package redis holds the redis-backed stores: logout blacklist, verification
// codes and the fixed-window request counter.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/budongsan-crm/config"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// Connect 연결 후 PING 으로 확인한다. 실패하면 클라이언트를 닫고 에러를 돌려준다.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr(), err)
	}

	logger.Info("Redis connection established")
	return client, nil
}
