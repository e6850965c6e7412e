package db

import (
	"context"
	"log"
	"time"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/config"

	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 2 * time.Second

// ConnectRedis returns nil when redis is not configured or not reachable.
// Without redis, OTP endpoints answer 503 and ride streams stay on this instance.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis %s unreachable: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	return client
}
