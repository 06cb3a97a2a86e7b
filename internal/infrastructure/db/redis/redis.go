// Package redis holds the client bootstrap plus the live-config cache built
// on top of it.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config carries the connection settings for the cache backend.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds the startup ping; zero means 5s.
	Timeout time.Duration
}

// Connect opens a client against cfg.Addr and pings it before returning, so a
// dead backend fails at startup instead of on the first cache read.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
