// Package redis implements the CredentialStore port on Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr      string
	DB        int
	KeyPrefix string
	Timeout   time.Duration
}

// Open initialises a Redis client, validates connectivity with a ping and
// returns a store bound to it. The caller owns the client.
func Open(ctx context.Context, cfg Config) (*redis.Client, *CredentialStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, NewCredentialStore(client, cfg.KeyPrefix), nil
}
