// Package cache keeps short-lived token resolutions in Redis.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect builds a Redis client and pings it. It returns nil when addr is
// empty or the server does not answer; callers treat a nil client as
// "cache disabled".
func Connect(ctx context.Context, addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
