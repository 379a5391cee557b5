package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/config"
	"github.com/redis/go-redis/v9"
)

// NewRedis 创建Redis客户端并用Ping测试连接
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("无法连接到Redis: %w", err)
	}
	return client, nil
}
